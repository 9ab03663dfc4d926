package orchestrator

import (
	"fmt"
	"strings"
)

type taskTemplate struct {
	intro        string
	instructions []string
	expected     string
}

// taskTemplates holds the single-agent task wording, one per agent type.
var taskTemplates = map[string]taskTemplate{
	"orchestrator": {
		intro: "You are the Master Orchestrator of Engram.\nA founder or operator has sent you this message:",
		instructions: []string{
			"Identify which departments or agents are most relevant",
			"Synthesize cross-functional insights if applicable",
			"Surface the top 3 priorities or action items",
			"Be concise, decisive and executive in tone",
			"If research is needed, use your search tool",
		},
		expected: "A sharp executive briefing: key insights, top priorities and clear next steps, structured with bullet points.",
	},
	"sales": {
		intro: "You are the Engram Sales Intelligence Agent.\nThe user has sent this request:",
		instructions: []string{
			"Pipeline question: give a stage-by-stage analysis, flag hot and at-risk deals, suggest next actions per deal",
			"Draft request (email, proposal, follow-up): write it in a professional, personalized B2B tone",
			"Forecast question: reason through the pipeline math",
			"Always end with 2-3 specific next steps",
			"To SEND an email to a real address you MUST call gmail_send_email; to save a draft call gmail_create_draft",
		},
		expected: "Actionable sales intelligence or copy in clear sections, ending with numbered next steps. If an email was sent, confirm the recipient and subject.",
	},
	"customer_service": {
		intro: "You are the Engram Customer Success & Support Agent.\nThe user has sent this request:",
		instructions: []string{
			"Ticket or support question: analyze the issue, draft a warm response, suggest a root-cause fix",
			"NPS or health question: interpret the data, identify churn signals, suggest retention actions",
			"Connect every finding back to revenue or retention impact",
			"To SEND an email to a customer you MUST call gmail_send_email; to save a draft call gmail_create_draft",
		},
		expected: "Support analysis or response draft in an empathetic tone, with root cause and recommended action. If an email was sent, confirm it.",
	},
	"technical": {
		intro: "You are the Engram Technical Operations Agent.\nThe user has sent this request:",
		instructions: []string{
			"System health or incident question: diagnose clearly in plain English and recommend immediate and long-term fixes",
			"Deployment or sprint question: summarize what shipped, what is in progress, blockers and velocity trend",
			"Architecture question: give a direct recommendation with trade-offs",
			"Always include: Current Status / Root Cause / Recommended Action",
		},
		expected: "Technical briefing with Current Status, Root Cause and Recommended Action, bullet-pointed.",
	},
	"market_intelligence": {
		intro: "You are the Engram Market Intelligence Agent.\nThe user has sent this request:",
		instructions: []string{
			"Search for the latest relevant news, funding rounds, product launches and competitor moves",
			"Identify signals that directly affect this startup's strategy and drop the noise",
			"Always cite sources (company name, publication, date)",
			"Conclude with a Strategic Implication section",
		},
		expected: "Curated, cited, high-signal market briefing ending with a Strategic Implication section.",
	},
	"meeting": {
		intro: "You are the Engram Meeting Intelligence Agent.\nThe user has sent this request:",
		instructions: []string{
			"Schedule question: list upcoming meetings with time, attendees and prep needed",
			"Agenda request: create a tight, time-boxed agenda with an objective per item",
			"Summary request: produce Decisions Made / Action Items (owner + deadline) / Open Questions",
			"Never produce walls of text, always structured lists",
			"To send an invite or follow-up call gmail_send_email; to post to Slack call slack_post_message",
		},
		expected: "Structured meeting output with owners and deadlines. If an email was sent or a Slack message posted, confirm it.",
	},
	"hr_ops": {
		intro: "You are the Engram HR & Operations Agent.\nThe user has sent this request:",
		instructions: []string{
			"Hiring question: analyze pipeline health, identify bottlenecks, recommend actions",
			"Job description request: cover role, impact, requirements and what makes this company unique",
			"Team capacity question: surface utilization, burnout risks and coverage gaps",
			"Onboarding question: provide a structured 30/60/90 day plan",
			"To SEND an email you MUST call gmail_send_email with the real recipient; to save a draft call gmail_create_draft",
		},
		expected: "Practical, structured HR or ops output. If an email was sent, confirm the recipient.",
	},
	"deep_research": {
		intro: "You are the Engram Deep Research Analyst.\nThe user has requested a research report on:",
		instructions: []string{
			"Search broadly: run at least 4-6 distinct web searches with varied queries",
			"Go deep on the most promising sources with web_fetch to extract data, quotes and statistics",
			"Cross-reference sources and note conflicting information",
			"Cite every factual claim with source and date",
			"Structure the report as: Executive Summary, Key Findings, Data & Evidence, Expert Perspectives, Risks & Counterarguments, Strategic Implications, Sources",
		},
		expected: "A comprehensive markdown research report with every section, concrete data and citations. Minimum 600 words.",
	},
}

// BuildTask renders the single-agent task description for agentType. The
// company context block, when non-empty, is prepended verbatim.
func BuildTask(agentType, message, companyContext string) (string, error) {
	tmpl, ok := taskTemplates[agentType]
	if !ok {
		return "", fmt.Errorf("orchestrator: no task defined for agent type %q", agentType)
	}

	var b strings.Builder
	writeContext(&b, companyContext)
	b.WriteString(tmpl.intro)
	fmt.Fprintf(&b, "\n\n\"%s\"\n\nYour job:\n", message)
	for _, line := range tmpl.instructions {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\nExpected output: ")
	b.WriteString(tmpl.expected)
	return b.String(), nil
}

func writeContext(b *strings.Builder, companyContext string) {
	if strings.TrimSpace(companyContext) == "" {
		return
	}
	b.WriteString(companyContext)
	if !strings.HasSuffix(companyContext, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}
