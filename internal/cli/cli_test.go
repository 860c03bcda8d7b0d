package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportExportRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	store := []string{"--driver", "sqlite", "--sqlite-path", db}

	input := `[
		{"title": "Sharding", "description": "Split data", "imageUrl": "i", "category": "storage", "sectionLink": "sharding", "audioUrl": "a"},
		{"_id": "65a1b2c3d4e5f60718293a4b", "title": "Queues", "description": "Async", "imageUrl": "i", "category": "messaging", "sectionLink": "queues", "audioUrl": "a"}
	]`
	out, err := run(t, input, append([]string{"import", "systemdesign"}, store...)...)
	if err != nil {
		t.Fatalf("import err: %v", err)
	}
	if !strings.Contains(out, `"imported":2`) {
		t.Fatalf("unexpected import output %q", out)
	}

	out, err = run(t, "", append([]string{"export", "systemdesign"}, store...)...)
	if err != nil {
		t.Fatalf("export err: %v", err)
	}
	var docs []map[string]any
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatalf("decode export: %v (%s)", err, out)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if id, _ := docs[0]["_id"].(string); len(id) != 24 {
		t.Fatalf("expected generated object id, got %v", docs[0]["_id"])
	}
	if docs[1]["_id"] != "65a1b2c3d4e5f60718293a4b" {
		t.Fatalf("expected imported id preserved, got %v", docs[1]["_id"])
	}

	out, err = run(t, "", append([]string{"stats"}, store...)...)
	if err != nil {
		t.Fatalf("stats err: %v", err)
	}
	var stats Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Driver != "sqlite" || stats.Collections["systemdesign"] != 2 || stats.Total != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if _, ok := stats.Collections["react-topics"]; !ok {
		t.Fatalf("expected every resource in stats, got %+v", stats.Collections)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	store := []string{"--driver", "sqlite", "--sqlite-path", filepath.Join(t.TempDir(), "cli.db")}

	if _, err := run(t, `{"not": "an array"}`, append([]string{"import", "mcq-training"}, store...)...); err == nil {
		t.Fatal("expected error for non-array input")
	}
	if _, err := run(t, `[{"_id": "nope"}]`, append([]string{"import", "mcq-training"}, store...)...); err == nil {
		t.Fatal("expected error for malformed _id")
	}
	if _, err := run(t, `[{"_id": 42}]`, append([]string{"import", "mcq-training"}, store...)...); err == nil || !strings.Contains(err.Error(), "unsupported _id") {
		t.Fatalf("expected error for numeric _id, got %v", err)
	}
	if _, err := run(t, `[]`, append([]string{"import", "videos"}, store...)...); err == nil || !strings.Contains(err.Error(), "unknown resource") {
		t.Fatalf("expected unknown resource error, got %v", err)
	}
}

func TestImportUnwrapsExtendedJSON(t *testing.T) {
	store := []string{"--driver", "sqlite", "--sqlite-path", filepath.Join(t.TempDir(), "cli.db")}

	input := `[{
		"_id": {"$oid": "65a1b2c3d4e5f60718293a4b"},
		"sectionId": "hooks",
		"level": "beginner",
		"title": "Hooks",
		"emoji": "🪝",
		"description": "State in functions",
		"color": "blue",
		"gradient": "from-blue",
		"topicIds": [{"$oid": "65a1b2c3d4e5f60718293a4c"}],
		"createdAt": {"$date": "2024-01-12T10:00:00Z"}
	}]`
	if _, err := run(t, input, append([]string{"import", "react-learning"}, store...)...); err != nil {
		t.Fatalf("import err: %v", err)
	}

	out, err := run(t, "", append([]string{"export", "react-learning"}, store...)...)
	if err != nil {
		t.Fatalf("export err: %v", err)
	}
	var docs []map[string]any
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatalf("decode export: %v (%s)", err, out)
	}
	if len(docs) != 1 || docs[0]["_id"] != "65a1b2c3d4e5f60718293a4b" {
		t.Fatalf("expected the wrapped id to be kept, got %+v", docs)
	}
	topics, _ := docs[0]["topicIds"].([]any)
	if len(topics) != 1 || topics[0] != "65a1b2c3d4e5f60718293a4c" {
		t.Fatalf("expected unwrapped topic ids, got %v", docs[0]["topicIds"])
	}
	if docs[0]["createdAt"] != "2024-01-12T10:00:00Z" {
		t.Fatalf("expected unwrapped createdAt, got %v", docs[0]["createdAt"])
	}
}
