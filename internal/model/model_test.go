package model_test

import (
	"testing"

	"github.com/Can0Ngu1/bot-web/internal/model"
)

// ── Builder ────────────────────────────────────────────────────────────────

func TestBuilder_AllFields(t *testing.T) {
	rec, err := model.NewBuilder().
		Code("IB2500123456").
		Title("Street lighting upgrade, district 7").
		PostDate("21/08/2025").
		CloseDate("05/09/2025").
		Org("District 7 public works board").
		Link("https://dauthau.asia/thongbao/123456").
		Build()
	if err != nil {
		t.Fatalf("Build returned unexpected error: %v", err)
	}
	if rec.Code != "IB2500123456" || rec.Title != "Street lighting upgrade, district 7" {
		t.Errorf("Build kept wrong required fields: %+v", rec)
	}
	if rec.Status != model.StatusNew {
		t.Errorf("Build status = %q, want %q", rec.Status, model.StatusNew)
	}
}

func TestBuilder_RequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		builder *model.Builder
	}{
		{"missing code", model.NewBuilder().Title("t").PostDate("21/08/2025")},
		{"missing title", model.NewBuilder().Code("A1").PostDate("21/08/2025")},
		{"missing post date", model.NewBuilder().Code("A1").Title("t")},
		{"whitespace code", model.NewBuilder().Code("   ").Title("t").PostDate("21/08/2025")},
	}
	for _, c := range cases {
		if _, err := c.builder.Build(); err == nil {
			t.Errorf("%s: Build expected error, got nil", c.name)
		}
	}
}

func TestBuilder_OptionalSentinels(t *testing.T) {
	rec, err := model.NewBuilder().
		Code("A1").
		Title("t").
		PostDate("21/08/2025").
		Build()
	if err != nil {
		t.Fatalf("Build returned unexpected error: %v", err)
	}
	if rec.CloseDate != model.UnknownCloseDate {
		t.Errorf("CloseDate = %q, want sentinel %q", rec.CloseDate, model.UnknownCloseDate)
	}
	if rec.Org != model.UnknownOrg {
		t.Errorf("Org = %q, want sentinel %q", rec.Org, model.UnknownOrg)
	}
	if rec.Link != "" {
		t.Errorf("Link = %q, want empty", rec.Link)
	}
}

func TestBuilder_TrimsWhitespace(t *testing.T) {
	rec, err := model.NewBuilder().
		Code("  A1 ").
		Title(" padded title\n").
		PostDate(" 21/08/2025 ").
		Build()
	if err != nil {
		t.Fatalf("Build returned unexpected error: %v", err)
	}
	if rec.Code != "A1" || rec.Title != "padded title" || rec.PostDate != "21/08/2025" {
		t.Errorf("Build did not trim fields: %+v", rec)
	}
}

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	for _, s := range []string{"NEW", "VIEWED", "ARCHIVED"} {
		got, err := model.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	for _, s := range []string{"", "new", "PENDING"} {
		if _, err := model.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) expected error, got nil", s)
		}
	}
}
