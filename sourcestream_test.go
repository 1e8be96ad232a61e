package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSourceStreamDrainsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.tms")
	if err := os.WriteFile(path, []byte("DB 1\nDB 2\n"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	s := NewSourceStream()
	if err := s.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}

	var texts []string
	for {
		item, ok := s.Next()
		if !ok {
			break
		}
		texts = append(texts, item.Text)
	}
	if len(texts) != 2 || texts[0] != "DB 1" || texts[1] != "DB 2" {
		t.Errorf("got %v, want [DB 1, DB 2]", texts)
	}
}

func TestSourceStreamIncludeResumesParent(t *testing.T) {
	dir := t.TempDir()
	incPath := filepath.Join(dir, "inc.tms")
	if err := os.WriteFile(incPath, []byte("DB 9\n"), 0o644); err != nil {
		t.Fatalf("writing include: %v", err)
	}
	mainPath := filepath.Join(dir, "main.tms")
	if err := os.WriteFile(mainPath, []byte("DB 1\nDB 2\n"), 0o644); err != nil {
		t.Fatalf("writing main: %v", err)
	}

	s := NewSourceStream()
	if err := s.Open(mainPath); err != nil {
		t.Fatalf("Open: %v", err)
	}

	first, ok := s.Next()
	if !ok || first.Text != "DB 1" {
		t.Fatalf("first line = %q, ok=%v, want DB 1", first.Text, ok)
	}

	if err := s.PushInclude(incPath); err != nil {
		t.Fatalf("PushInclude: %v", err)
	}

	var texts []string
	for {
		item, ok := s.Next()
		if !ok {
			break
		}
		texts = append(texts, item.Text)
	}
	if len(texts) != 2 || texts[0] != "DB 9" || texts[1] != "DB 2" {
		t.Errorf("got %v, want [DB 9, DB 2] (include drains, then parent resumes)", texts)
	}
}

func TestSourceStreamResolveIncludeSearchesAddedPaths(t *testing.T) {
	libDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(libDir, "lib.tms"), []byte("DB 5\n"), 0o644); err != nil {
		t.Fatalf("writing lib file: %v", err)
	}

	mainDir := t.TempDir()
	mainPath := filepath.Join(mainDir, "main.tms")
	if err := os.WriteFile(mainPath, []byte("DB 1\n"), 0o644); err != nil {
		t.Fatalf("writing main: %v", err)
	}

	s := NewSourceStream()
	if err := s.AddIncludePath(libDir); err != nil {
		t.Fatalf("AddIncludePath: %v", err)
	}
	if err := s.Open(mainPath); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Next(); !ok {
		t.Fatal("expected the first line of main")
	}
	if err := s.PushInclude("lib.tms"); err != nil {
		t.Fatalf("PushInclude should resolve lib.tms via the added include path: %v", err)
	}
	item, ok := s.Next()
	if !ok || item.Text != "DB 5" {
		t.Errorf("got %q, ok=%v, want DB 5", item.Text, ok)
	}
}

func TestSourceStreamMissingIncludeFails(t *testing.T) {
	s := NewSourceStream()
	if _, err := s.resolveInclude("does-not-exist.tms"); err == nil {
		t.Fatal("expected resolving a nonexistent include to fail")
	}
}

func TestAddIncludePathRejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "notadir.tms")
	if err := os.WriteFile(filePath, []byte(""), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	s := NewSourceStream()
	if err := s.AddIncludePath(filePath); err == nil {
		t.Fatal("expected AddIncludePath on a regular file to fail")
	}
}
