package config

import (
	"testing"
)

func TestDeepMergeStructs(t *testing.T) {
	type Inner struct {
		Value int
		Name  string
	}
	type Outer struct {
		Inner Inner
		Count int
	}

	dst := &Outer{Inner: Inner{Value: 1, Name: "original"}, Count: 10}
	src := &Outer{Inner: Inner{Value: 2}, Count: 0}

	DeepMerge(dst, src)

	if dst.Inner.Value != 2 {
		t.Errorf("Inner.Value: got %d, want 2", dst.Inner.Value)
	}
	if dst.Inner.Name != "original" {
		t.Errorf("Inner.Name: got %s, want original", dst.Inner.Name)
	}
	if dst.Count != 10 {
		t.Errorf("Count: got %d, want 10 (zero value shouldn't override)", dst.Count)
	}
}

func TestDeepMergeSlices(t *testing.T) {
	type S struct {
		Items []string
	}

	dst := &S{Items: []string{"a", "b"}}
	src := &S{Items: []string{"x", "y", "z"}}

	DeepMerge(dst, src)

	if len(dst.Items) != 3 {
		t.Errorf("Items length: got %d, want 3", len(dst.Items))
	}
	if dst.Items[0] != "x" {
		t.Errorf("Items[0]: got %s, want x", dst.Items[0])
	}
}

func TestDeepMergeEmptySliceNoOverwrite(t *testing.T) {
	type S struct {
		Items []string
	}

	dst := &S{Items: []string{"a", "b"}}
	src := &S{Items: []string{}}

	DeepMerge(dst, src)

	if len(dst.Items) != 2 {
		t.Errorf("Items length: got %d, want 2 (empty slice shouldn't overwrite)", len(dst.Items))
	}
}

func TestDeepMergeConfig(t *testing.T) {
	dst := DefaultConfig()
	src := &Config{
		LLM: LLMConfig{
			DefaultModel: "claude-opus-4-20250514",
			MaxRetries:   5,
		},
	}

	DeepMerge(dst, src)

	if dst.LLM.DefaultModel != "claude-opus-4-20250514" {
		t.Errorf("DefaultModel: got %s, want claude-opus-4-20250514", dst.LLM.DefaultModel)
	}
	if dst.LLM.MaxRetries != 5 {
		t.Errorf("MaxRetries: got %d, want 5", dst.LLM.MaxRetries)
	}
	if dst.Server.Addr != "127.0.0.1:8787" {
		t.Errorf("Server.Addr should retain default: got %s", dst.Server.Addr)
	}
	if dst.Orders.DedupeWindow != "30s" {
		t.Errorf("DedupeWindow should retain default: got %s", dst.Orders.DedupeWindow)
	}
}
