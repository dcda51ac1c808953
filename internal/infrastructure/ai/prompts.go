package ai

import (
	"fmt"
	"strings"
)

const maxRecentQueries = 5

// Prompt is one system+user exchange ready for Chat.
type Prompt struct {
	System string
	User   string
}

// NLToSQLPrompt asks for raw SQL answering request, given the schema DDL and
// up to five recent queries.
func NLToSQLPrompt(request, ddl string, recent []string) Prompt {
	var recentBlock string
	if len(recent) > 0 {
		if len(recent) > maxRecentQueries {
			recent = recent[:maxRecentQueries]
		}
		lines := make([]string, len(recent))
		for i, q := range recent {
			lines[i] = "- " + q
		}
		recentBlock = "\n\nRecent queries for context:\n" + strings.Join(lines, "\n")
	}
	return Prompt{
		System: "You are a PostgreSQL expert assistant embedded in a database client. " +
			"Generate only valid PostgreSQL SQL. NEVER wrap the output in markdown code fences " +
			"(no ```sql, no ```, no triple backticks of any kind). " +
			"Do not include any explanations. Respond with ONLY the raw SQL query text.\n\n" +
			"Database schema:\n" + ddl + recentBlock,
		User: request,
	}
}

func ExplainPrompt(sql, ddl string) Prompt {
	return Prompt{
		System: "You are a PostgreSQL expert. Explain SQL queries clearly and concisely. " +
			"Reference specific tables and columns from the schema.\n\n" +
			"Database schema:\n" + ddl,
		User: fmt.Sprintf("Explain this query:\n\n```sql\n%s\n```", sql),
	}
}

// OptimizePrompt asks for a faster query, or for a fix when queryErr is set.
func OptimizePrompt(sql, ddl, queryErr string) Prompt {
	user := fmt.Sprintf("Optimize this query:\n\n```sql\n%s\n```", sql)
	if queryErr != "" {
		user = fmt.Sprintf("This query failed with error: %s\n\n```sql\n%s\n```\n\nFix it and explain what was wrong.", queryErr, sql)
	}
	return Prompt{
		System: "You are a PostgreSQL performance expert. Suggest query optimizations, " +
			"missing indexes, and better query patterns. If there's an error, fix it. " +
			"Respond with the improved SQL first, then a brief explanation.\n\n" +
			"Database schema:\n" + ddl,
		User: user,
	}
}

// CursorMarker marks the completion point in a CompletePrompt.
const CursorMarker = "<CURSOR>"

func CompletePrompt(prefix, suffix, ddl string) Prompt {
	return Prompt{
		System: "You are a SQL autocomplete engine. Complete the SQL query at the cursor position " +
			"marked with <CURSOR>. Return ONLY the completion text (what goes at the cursor), " +
			"nothing else. No markdown, no explanation. If unsure, return empty string.\n\n" +
			"Database schema:\n" + ddl,
		User: prefix + CursorMarker + suffix,
	}
}

func ChatPrompt(message, ddl string) Prompt {
	return Prompt{
		System: "You are a PostgreSQL expert assistant embedded in a database client called PgStudio. " +
			"Help users with queries, schema design, performance, and PostgreSQL features. " +
			"Be concise and practical. Use the schema below for context.\n\n" +
			"Database schema:\n" + ddl,
		User: message,
	}
}

// StripCodeFences removes a surrounding markdown fence, including an
// optional language tag on the opening line.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(trimmed, "```")
	if !ok {
		return trimmed
	}
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	}
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}
