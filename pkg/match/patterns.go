package match

// defaultPatterns is the vocabulary shipped with the assistant. The slice
// order is significant: equal-confidence matches keep this order, so the most
// commonly used tools come first.
func defaultPatterns() []patternEntry {
	return []patternEntry{
		{
			tool: "get_tasks",
			pattern: Pattern{
				Keywords: []string{"task", "tasks", "todo"},
				Context:  []string{"show", "list", "all", "view", "pending", "current"},
				Examples: []string{
					"show me all tasks",
					"list my tasks",
					"what tasks are pending",
				},
			},
		},
		{
			tool: "add_task",
			pattern: Pattern{
				Keywords: []string{"add task", "create task", "new task"},
				Context:  []string{"add", "create", "new", "make"},
				Examples: []string{
					"add a task to review the report",
					"create a new task for the release",
				},
			},
		},
		{
			tool: "set_task_status",
			pattern: Pattern{
				Keywords: []string{"status", "mark", "complete", "done"},
				Context:  []string{"task", "set", "update", "finish"},
				Examples: []string{
					"mark task 3 as done",
					"set task 2 status to in progress",
				},
			},
		},
		{
			tool: "read_file",
			pattern: Pattern{
				Keywords: []string{"read", "open", "show file", "contents"},
				Context:  []string{"file", "path", "config", "code"},
				Examples: []string{
					"read the file main.go",
					"show me the contents of config.yaml",
				},
			},
		},
		{
			tool: "write_file",
			pattern: Pattern{
				Keywords: []string{"write", "save", "create file"},
				Context:  []string{"file", "content", "text", "notes"},
				Examples: []string{
					"write hello world to notes.txt",
					"save this summary to report.md",
				},
			},
		},
		{
			tool: "list_directory",
			pattern: Pattern{
				Keywords: []string{"list", "directory", "folder", "files"},
				Context:  []string{"show", "contents", "inside", "browse"},
				Examples: []string{
					"list files in the src directory",
					"what is inside the docs folder",
				},
			},
		},
		{
			tool: "brave_web_search",
			pattern: Pattern{
				Keywords: []string{"search", "look up", "find", "google"},
				Context:  []string{"web", "online", "internet", "information", "latest"},
				Examples: []string{
					"search the web for golang generics",
					"look up the latest release notes online",
				},
			},
		},
		{
			tool: "create_issue",
			pattern: Pattern{
				Keywords: []string{"issue", "bug", "ticket"},
				Context:  []string{"create", "open", "report", "github", "repo"},
				Examples: []string{
					"open a github issue about the login crash",
					"report a bug for the importer",
				},
			},
		},
	}
}
