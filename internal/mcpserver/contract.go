package mcpserver

// PostFormatContract describes the canonical post structure that LLM
// consumers should follow when creating posts.
const PostFormatContract = `# Mannaz Post Format Contract

Every post belongs to exactly one type, fixed at creation. Pick the type
first; it decides which fields are meaningful.

## Types

| Type     | Purpose                                  | Extra fields                        |
|----------|------------------------------------------|-------------------------------------|
| ` + "`note`" + `   | Study notes, summaries, shared material  | ` + "`tags`" + ` (comma-separated)            |
| ` + "`job`" + `    | Job and internship postings              | ` + "`company`" + `, ` + "`location`" + ` (both REQUIRED), ` + "`job_link`" + ` |
| ` + "`thread`" + ` | Open discussion questions                | none                                |

## Rules

1. **` + "`title`" + ` and ` + "`content`" + ` are required** for every type.
2. **Job postings require ` + "`company`" + ` and ` + "`location`" + `.** A job without them is rejected.
3. **Tags** only apply to notes. Lowercase, comma-separated, short
   (e.g. ` + "`algorithms, midterm, week-3`" + `). They are searchable.
4. **Replies are append-only.** There is no edit or delete; write carefully.
5. **Author identity is a snapshot.** The author name shown on a post is
   taken at creation time and does not follow later profile edits.

## Example

` + "```" + `
type:    note
title:   Graph algorithms midterm summary
content: BFS/DFS complexity table, Dijkstra walkthrough, common pitfalls...
tags:    algorithms, midterm
` + "```" + `
`
