package match

import "testing"

func TestExtractTaskStatus(t *testing.T) {
	args := extractTaskStatus("mark task 3 as done")
	if got, ok := args["id"].(int); !ok || got != 3 {
		t.Fatalf("expected id=3, got %v", args["id"])
	}
	if got, ok := args["status"].(string); !ok || got != "done" {
		t.Fatalf("expected status=done, got %v", args["status"])
	}
}

func TestExtractTaskStatusInProgress(t *testing.T) {
	args := extractTaskStatus("set task #12 status to in progress")
	if got := args["id"]; got != 12 {
		t.Fatalf("expected id=12, got %v", got)
	}
	if got := args["status"]; got != "in-progress" {
		t.Fatalf("expected status=in-progress, got %v", got)
	}
}

func TestExtractTaskFilter(t *testing.T) {
	args := extractTaskFilter("show me all pending tasks")
	if got := args["status"]; got != "pending" {
		t.Fatalf("expected status=pending, got %v", got)
	}
	if args := extractTaskFilter("show me all tasks"); len(args) != 0 {
		t.Fatalf("expected no filter, got %v", args)
	}
}

func TestExtractTaskPrompt(t *testing.T) {
	args := extractTaskPrompt(`add a task "review the quarterly report"`)
	if got := args["prompt"]; got != "review the quarterly report" {
		t.Fatalf("expected quoted prompt, got %v", got)
	}
	args = extractTaskPrompt("add a task to call the vendor tomorrow")
	if got := args["prompt"]; got != "call the vendor tomorrow" {
		t.Fatalf("expected trailing clause, got %v", got)
	}
}

func TestExtractFilePath(t *testing.T) {
	args := extractFilePath("read the file cmd/swarmbot/main.go please")
	if got := args["path"]; got != "cmd/swarmbot/main.go" {
		t.Fatalf("expected path extraction, got %v", got)
	}
	if args := extractFilePath("read something without a filename"); len(args) != 0 {
		t.Fatalf("expected no path, got %v", args)
	}
}

func TestExtractWriteFile(t *testing.T) {
	args := extractWriteFile(`write "hello world" to notes.txt`)
	if got := args["path"]; got != "notes.txt" {
		t.Fatalf("expected path=notes.txt, got %v", got)
	}
	if got := args["content"]; got != "hello world" {
		t.Fatalf("expected quoted content, got %v", got)
	}
}

func TestExtractDirectory(t *testing.T) {
	args := extractDirectory("list files in the src directory")
	if got := args["path"]; got != "src" {
		t.Fatalf("expected path=src, got %v", got)
	}
}

func TestExtractSearchQuery(t *testing.T) {
	args := extractSearchQuery("search the web for golang generics")
	if got := args["query"]; got != "golang generics" {
		t.Fatalf("expected stripped query, got %v", got)
	}
	args = extractSearchQuery(`search for "exact phrase"`)
	if got := args["query"]; got != "exact phrase" {
		t.Fatalf("expected quoted query, got %v", got)
	}
}

func TestExtractIssue(t *testing.T) {
	args := extractIssue("open a github issue about the login crash")
	if got := args["title"]; got != "the login crash" {
		t.Fatalf("expected title extraction, got %v", got)
	}
}

func TestClassifyStatusPrecedence(t *testing.T) {
	// "in progress" must win over the bare "progress"/"done" handling.
	if status, ok := classifyStatus("move it to in progress"); !ok || status != "in-progress" {
		t.Fatalf("expected in-progress, got %q", status)
	}
	// "completed" contains "complete"; both map to done.
	if status, ok := classifyStatus("this is completed"); !ok || status != "done" {
		t.Fatalf("expected done, got %q", status)
	}
}
