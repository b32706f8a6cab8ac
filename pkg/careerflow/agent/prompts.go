package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
)

func workerSystemPrompt(role string) string {
	return "You are a specialized career guidance agent. Your specific role is: " + role + "\n\n" +
		"Work only from the context provided below.\n" +
		"Respond with your analysis or findings directly. If you cannot perform the task, state the reason clearly.\n" +
		"Your response will be attributed to your specialized role in the conversation."
}

var (
	profilePrompt = workerSystemPrompt(
		"Provide an analysis of a LinkedIn profile for ranking in search as well as optimizing for recruiter preferences. " +
			"Analyze the scraped profile data for strengths, weaknesses, gaps and inconsistencies across all sections " +
			"(Summary, Experience, Education, Skills, etc.). Use the search notes for current best practices.")

	jobFitPrompt = workerSystemPrompt(
		"Analyze the fit between the user's profile data and the target job role. " +
			"Compare the profile against the standard job descriptions, required skills and industry expectations in the search notes. " +
			"Provide: 1. A qualitative assessment of the fit (Strong Match, Good Match, Needs Improvement). " +
			"2. Key skill gaps. 3. Specific improvements to the profile or skills needed to bridge the gap. " +
			"4. Feedback adjusted to the user's current experience level.")

	guidancePrompt = workerSystemPrompt(
		"Provide comprehensive career guidance based on the profile analysis and job fit assessment. " +
			"Using the search notes on career paths and learning resources: " +
			"1. Outline potential career trajectories from the user's current state towards the target role and beyond. " +
			"2. Suggest concrete next steps, including skill development and networking strategies. " +
			"3. Recommend specific learning resources (courses, certifications, communities).")
)

const counsellorPersona = `<role>Counsellor</role>
<name>Ria</name>
<goal>help clients optimize their LinkedIn profile and plan their career</goal>
<tone>friendly, human, hopeful; specific rather than generic</tone>`

const counsellorIntakePrompt = counsellorPersona + `
<task>
- greet the client if this is the start of the conversation
- explain briefly that the team can analyze their LinkedIn profile, assess their fit for a target role and give career guidance
- ask for exactly the missing inputs listed in the context
- a profile URL must start with https://www.linkedin.com/in/
</task>`

const counsellorSynthesisPrompt = counsellorPersona + `
<task>
- the team has finished the profile analysis, the job fit assessment and the career guidance
- write one reply to the client that synthesizes the three results into a clear, prioritized plan
- keep the most important findings and concrete next steps; do not invent facts beyond the results
- if the client's latest message is a follow-up question, answer it from the results
</task>`

const counsellorPartialPrompt = counsellorPersona + `
<task>
- the team could not finish every step for this request
- tell the client what has been completed, with the key findings
- explain what could not be completed and why, using the notes provided
- tell the client what they can do next (for example share a valid profile URL, confirm the target role, or try again later)
</task>`

func supervisorSystemPrompt(s *conversation.State, expected string) string {
	var b strings.Builder
	b.WriteString("You are a supervisor managing a conversation between the following workers: ")
	b.WriteString("ProfileAnalyzer (LinkedIn profile analysis), JobFitAnalyzer (fit for the target role, after profile analysis), ")
	b.WriteString("CareerAdvisor (career guidance, after profile analysis and job fit). ")
	b.WriteString("The Counsellor talks to the user: route to Counsellor to synthesize finished work or when the user's request needs no worker. ")
	b.WriteString("Route to FINISH only when the Counsellor has already replied to the user in this turn.\n")
	b.WriteString("Never route to a worker whose task is already complete. Choose exactly one option.\n\n")

	fmt.Fprintf(&b, "Completed tasks:\n")
	for _, st := range conversation.Stages() {
		fmt.Fprintf(&b, "- %s: %t\n", st, s.Done(st))
	}
	fmt.Fprintf(&b, "Expected next worker: %s\n", expected)
	fmt.Fprintf(&b, "Profile URL: %s\nTarget role: %s\n", s.ProfileURL, s.TargetRole)
	b.WriteString(`Respond with a JSON object {"next": "<option>"}.`)
	return b.String()
}

func routingSchema() []byte {
	labels := make([]string, 0, len(conversation.RoutingTargets()))
	for _, n := range conversation.RoutingTargets() {
		labels = append(labels, fmt.Sprintf("%q", n))
	}
	return []byte(`{"type":"object","properties":{"next":{"type":"string","enum":[` +
		strings.Join(labels, ",") + `]}},"required":["next"]}`)
}

// renderTranscript formats messages as "Speaker: content" lines.
func renderTranscript(msgs []conversation.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		speaker := m.Speaker
		if speaker == "" {
			speaker = string(m.Role)
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n[truncated]"
}
