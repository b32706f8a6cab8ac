// Package tools holds the auxiliary collaborators workers call besides the
// LLM: web search and LinkedIn profile scraping.
//
// Search returns plain text for the prompt and may fail; callers treat a
// failure as a missing hint. Scrape never returns an error value: every
// outcome, including an invalid URL or an upstream failure, comes back as
// a ScrapeOutcome the worker can turn into a transcript message.
package tools
