package parse

import "fmt"

// maxPromptText bounds the resume text sent to the completion service.
const maxPromptText = 15000

const structuredPrompt = `Extract resume data from the text below into this JSON structure:
{
  "fullName": "string", "title": "string", "email": "string", "phone": "string",
  "location": "string", "website": "string", "summary": "string",
  "experience": [{ "company": "string", "role": "string", "startDate": "string", "endDate": "string", "description": "string" }],
  "education": [{ "school": "string", "degree": "string", "year": "string" }],
  "skills": [{ "name": "string", "level": 3 }]
}
Rules: Summarize descriptions. Infer skill levels (1-5). Return ONLY JSON.

Text:
%s`

func buildPrompt(text string) string {
	return fmt.Sprintf(structuredPrompt, truncateRunes(text, maxPromptText))
}
