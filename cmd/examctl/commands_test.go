package main

import (
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/pkg/database"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func TestParseMarks(t *testing.T) {
	marks, err := parseMarks([]string{"12=4.5", " 13 = 3 "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(marks) != 2 {
		t.Fatalf("expected 2 marks, got %d", len(marks))
	}
	if !marks[12].Equal(decimal.RequireFromString("4.5")) || !marks[13].Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected marks: %v", marks)
	}

	for _, bad := range []string{"12", "x=1", "0=1", "12=abc"} {
		if _, err := parseMarks([]string{bad}); err == nil {
			t.Errorf("parseMarks(%q) should fail", bad)
		}
	}
}

func TestDecodeExamFile(t *testing.T) {
	const doc = `
title: Math101
description: Midterm
questions:
  - text: "6 x 7 = ?"
    max_marks: 5
  - text: Pick the prime
    type: mcq
    max_marks: 5
    options: ["4", "7", "9"]
`
	req, err := decodeExamFile(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Title != "Math101" || req.Description != "Midterm" || len(req.Questions) != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Questions[0].QuestionType != "TEXT" || req.Questions[0].Options != nil {
		t.Fatalf("expected TEXT without options, got %+v", req.Questions[0])
	}
	if req.Questions[1].QuestionType != "MCQ" || string(req.Questions[1].Options) != `["4","7","9"]` {
		t.Fatalf("unexpected mcq question: %+v (options %s)", req.Questions[1], req.Questions[1].Options)
	}
}

func TestDecodeExamFileRejectsUnknownFields(t *testing.T) {
	const doc = `
title: Math101
duration: 60
`
	if _, err := decodeExamFile(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"import", "exams", "results", "submission", "grade", "user"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestUserAddCreatesGrader(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "exam_portal.db")
	conf := "database:\n  driver: sqlite\n  path: " + dbPath + "\n" +
		"storage:\n  type: local\n  local_path: " + filepath.Join(dir, "uploads") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(conf), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	run := func(args ...string) error {
		root := newRootCmd()
		root.SetArgs(append([]string{"--config", dir, "user", "add"}, args...))
		return root.Execute()
	}

	if err := run("--name", "Grader", "--email", "Grader@Example.com", "--password", "grader123"); err != nil {
		t.Fatalf("user add: %v", err)
	}
	if err := run("--name", "Again", "--email", "grader@example.com", "--password", "grader123"); err == nil {
		t.Fatal("expected duplicate email to fail")
	}
	if err := run("--email", "short@example.com", "--password", "123"); err == nil {
		t.Fatal("expected short password to fail")
	}
	if err := run("--email", "root@example.com", "--password", "root12345", "--role", "owner"); err == nil {
		t.Fatal("expected unknown role to fail")
	}

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: dbPath, LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}

	var users []model.User
	if err := db.Where("email IN ?", []string{"grader@example.com", "short@example.com", "root@example.com"}).Find(&users).Error; err != nil {
		t.Fatalf("load users: %v", err)
	}
	if len(users) != 1 || users[0].Role != model.Grader || users[0].Name != "Grader" {
		t.Fatalf("unexpected users: %+v", users)
	}
	if bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("grader123")) != nil {
		t.Fatal("stored password does not match")
	}
}
