package service

import "strings"

// defaultWebsite is substituted when a school has no website on file.
const defaultWebsite = "https://example.com"

// promptTemplate is the academic-calendar extraction prompt handed to the
// scraping agent. The text is passed through unchanged apart from the website
// URL substitution.
const promptTemplate = `You are an automated academic calendar and term-date extraction engine.

Input:
- School website URL: {{SCHOOL_WEBSITE_URL}}

GOAL:
Extract 100% of ALL academic calendar, term dates, holidays, closures, and staff-only days published anywhere on the website or its linked documents.
ABSOLUTELY NO PARTIAL, GUESSED, OR TRUNCATED DATA IS ALLOWED.

CRITICAL INSTRUCTIONS (MUST FOLLOW):

1. WEBSITE CRAWLING (MANDATORY)
   - Crawl the ENTIRE website recursively.
   - Visit EVERY internal page, including but not limited to:
     - Term Dates
     - School Calendar
     - Academic Calendar
     - Parents Information
     - Key Dates
     - Policies
     - News / Announcements
     - Downloads / Documents
   - Do NOT rely on navigation menus only.
   - Follow ALL internal links until no new date-related pages exist.

2. DOCUMENT HANDLING (MANDATORY)
   - Detect and open ALL downloadable files:
     - PDF, DOC, DOCX, XLS, XLSX
   - Fully read:
     - Tables
     - Headers
     - Footnotes
     - Notes
     - Small print
   - Extract ALL date-related text from documents.
   - If a document is linked from another document, open that too.

3. EVENT EXTRACTION RULES (ZERO TOLERANCE)
   - EVERY event must be extracted as its OWN entry.
   - DO NOT merge events.
   - DO NOT summarise.
   - DO NOT rewrite text.
   - Preserve the FULL original wording EXACTLY as written.

4. DATE RULES (STRICT)
   - Convert ALL dates to ISO format: YYYY-MM-DD
   - If a date range is given:
       - start_date = first date
       - end_date = last date
   - If a single-day event:
       - end_date = null
   - If ANY part of a date is unclear or missing:
       - STOP and SEARCH again until the exact date is found
       - NEVER output placeholders like "?", "…", or incomplete dates
   - Ignore weekday names once the date is identified
   - NEVER infer dates from weekdays alone

5. TIME RULES
   - If a time is written (e.g., "closes at 2pm"):
       - Convert to 24-hour format (HH:MM)
   - If no time is written:
       - time = null

6. COVERAGE REQUIREMENTS (MANDATORY)
 Extract data for:
   - ALL academic years listed (past, current, future)
   - ALL terms:
     - Autumn
     - Spring
     - Summer
   - ALL Half Terms
   - ALL Holidays
   - ALL INSET days
   - ALL Bank Holidays
   - ALL School closures
   - ALL Staff training days
   - ALL early closures

7. VALIDATION BEFORE OUTPUT (REQUIRED)
   - Verify there are NO:
     - Missing end dates
     - Unknown dates
     - Truncated events
     - Partial years
   - If ANY event is incomplete:
     - Re-crawl the site and documents
     - Do NOT output until complete

OUTPUT FORMAT (JSON ONLY — NO EXPLANATION):

{
  "school_name": "Education My Life Matters (EMLM)",
  "source_url": "{{SCHOOL_WEBSITE_URL}}",
  "terms": [
    {
      "academic_year": "YYYY-YYYY",
      "term_name": "Autumn | Spring | Summer | Holiday | Half Term | INSET | Closure",
      "events": [
        {
          "start_date": "YYYY-MM-DD",
          "end_date": "YYYY-MM-DD or null",
          "time": "HH:MM or null",
          "event_text": "FULL original event description exactly as written"
        }
      ]
    }
  ]
}

ABSOLUTE RULES:
- JSON ONLY
- NO markdown
- NO explanations
- NO assumptions
- NO placeholders
- NO missing data
- FAIL THE TASK IF DATA IS INCOMPLETE`

// PromptForWebsite renders the extraction prompt for a school website. An
// empty website falls back to a placeholder URL; URLs without a protocol get
// an https:// prefix.
func PromptForWebsite(website string) string {
	url := strings.TrimSpace(website)
	if url == "" {
		url = defaultWebsite
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return strings.ReplaceAll(promptTemplate, "{{SCHOOL_WEBSITE_URL}}", url)
}
