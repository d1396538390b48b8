package models

import "testing"

func TestTaskStatusNext(t *testing.T) {
	tests := []struct {
		in   TaskStatus
		want TaskStatus
	}{
		{TaskTodo, TaskInProgress},
		{TaskInProgress, TaskDone},
		{TaskDone, TaskTodo},
		{TaskStatus("bogus"), TaskTodo},
	}
	for _, tt := range tests {
		if got := tt.in.Next(); got != tt.want {
			t.Errorf("%q.Next() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range ProjectStatuses {
		if !s.Valid() {
			t.Errorf("project status %q should be valid", s)
		}
	}
	for _, s := range TaskStatuses {
		if !s.Valid() {
			t.Errorf("task status %q should be valid", s)
		}
	}
	if ProjectStatus("archived").Valid() {
		t.Error("archived should not be a valid project status")
	}
	if TaskStatus("blocked").Valid() {
		t.Error("blocked should not be a valid task status")
	}
}

func TestLabels(t *testing.T) {
	if got := ProjectOnHold.Label(); got != "on hold" {
		t.Fatalf("ProjectOnHold.Label() = %q", got)
	}
	if got := Title(TaskInProgress.Label()); got != "In Progress" {
		t.Fatalf("Title(in progress) = %q", got)
	}
	if got := Title("dashboard"); got != "Dashboard" {
		t.Fatalf("Title(dashboard) = %q", got)
	}
}

func TestStringHelpers(t *testing.T) {
	if String("   ") != nil {
		t.Fatal("blank string should map to nil")
	}
	if got := Deref(String(" hi ")); got != "hi" {
		t.Fatalf("Deref(String) = %q", got)
	}
	if Deref(nil) != "" {
		t.Fatal("Deref(nil) should be empty")
	}
}
