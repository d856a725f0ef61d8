package mcpserver

// AnnotationContract describes the checklist line and annotation grammar
// that LLM consumers should follow when writing or editing tasks.
const AnnotationContract = `# pit Task Annotation Contract

pit reads tasks from Markdown list items and typed fields from inline
` + "`" + `%key=value` + "`" + ` annotations. Follow this grammar so tasks stay parseable.

## Task lines

` + "```" + `markdown
- [ ] buy milk %prio=2 %due=tomorrow
* [x] file taxes %done="2024-04-30T18:02:11.000Z"
  - [ ] nested items are tasks too
` + "```" + `

1. **A task is a list item.** Optional indentation, then ` + "`" + `-` + "`" + ` or ` + "`" + `*` + "`" + `, then at
   least one space or tab. The task spans the rest of that line.
2. **The first ` + "`" + `[?]` + "`" + ` box decides completion.** A space means open; any other single
   character (` + "`" + `x` + "`" + `, ` + "`" + `X` + "`" + `, ` + "`" + `-` + "`" + `) means completed. A list item without a box is an
   open task.
3. **Lines are addressed zero-based.** ` + "`" + `toggle_task` + "`" + ` takes the line reported by
   ` + "`" + `list_tasks` + "`" + `.

## Annotations

- Form: ` + "`" + `%key=value` + "`" + `. The key runs up to ` + "`" + `=` + "`" + ` and holds no whitespace.
- Values with spaces MUST be double-quoted: ` + "`" + `%due="next friday"` + "`" + `. Quotes are not part
  of the value. An unterminated quote makes the token invisible.
- A key may repeat; for typed fields the **last** occurrence wins, even when its value
  does not parse.

| key | meaning | value |
|---|---|---|
| ` + "`" + `prio` + "`" + ` | priority, lower is more urgent | integer (leading digits are used: ` + "`" + `3rd` + "`" + ` is 3) |
| ` + "`" + `due` + "`" + ` | due date | ISO date/time or natural language (` + "`" + `tomorrow` + "`" + `, ` + "`" + `"next monday"` + "`" + `) |
| ` + "`" + `done` + "`" + ` | completion time | written by pit as an ISO-8601 UTC timestamp |

Other keys are kept verbatim and ignored.

## Completion

- Completing a task rewrites its box to ` + "`" + `[x]` + "`" + ` and replaces (or appends) its
  ` + "`" + `%done` + "`" + ` annotation with the current time.
- Re-opening a task rewrites the box to ` + "`" + `[ ]` + "`" + ` and removes the ` + "`" + `%done` + "`" + ` annotation.
- Do not hand-edit ` + "`" + `%done` + "`" + `; toggle the task instead.

## Rolling

` + "`" + `roll_task` + "`" + ` draws a task at random. With M the largest priority in the set, a task
with priority p is drawn with weight M-p+1. Tasks without ` + "`" + `%prio` + "`" + ` (and no configured
default) are never drawn.
`
