package accountmgr

import (
	"errors"
	"strings"
	"testing"
)

var textSample = []AccountManager{
	{
		Name:        "Science United",
		URL:         "https://scienceunited.org/",
		Description: "Science United is a <b>new</b> way to participate&nbsp;in BOINC.",
		ImageURL:    "https://boinc.berkeley.edu/images/su_512.png",
	},
	{
		Name: "GridRepublic",
		URL:  "https://www.gridrepublic.org/",
	},
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"plain   text\n here":                       "plain text here",
		"<p>one</p><p>two</p>":                      "one two",
		"a <b>bold</b> move":                        "a bold move",
		"fish &amp; chips":                          "fish & chips",
		"<script>alert(1)</script>visible<br/>line": "visible line",
		"":                                          "",
	}
	for in, want := range cases {
		if got := PlainText(in); got != want {
			t.Fatalf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	out, err := ConvertToText(textSample, FormatMarkdown)
	if err != nil {
		t.Fatalf("render markdown: %v", err)
	}
	if !strings.Contains(out, "## Science United") || !strings.Contains(out, "- URL: https://scienceunited.org/") {
		t.Fatalf("unexpected markdown:\n%s", out)
	}
	if strings.Contains(out, "<b>") {
		t.Fatalf("markup leaked into markdown:\n%s", out)
	}
	back, err := ConvertFromText(out, FormatMarkdown)
	if err != nil {
		t.Fatalf("import markdown: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("expected 2 records, got %#v", back)
	}
	if back[0].Name != "Science United" || back[0].URL != textSample[0].URL || back[0].ImageURL != textSample[0].ImageURL {
		t.Fatalf("first record mismatch: %#v", back[0])
	}
	if back[0].Description != "Science United is a new way to participate in BOINC." {
		t.Fatalf("description mismatch: %q", back[0].Description)
	}
	if back[1] != (AccountManager{Name: "GridRepublic", URL: "https://www.gridrepublic.org/"}) {
		t.Fatalf("second record mismatch: %#v", back[1])
	}
}

func TestMarkdownRoundTripKeepsPunctuation(t *testing.T) {
	list := []AccountManager{
		{Name: "Grid *Star*", URL: "https://grid_star.example/?a=1&b=2"},
		{Name: "<b>x</b>", URL: "https://x.example/", ImageURL: "https://x.example/logo_1.png"},
		{Name: `C# [beta] \ ~odd~ ` + "`tick`", Description: "uses *stars* & [brackets]"},
	}
	out, err := ConvertToText(list, FormatMarkdown)
	if err != nil {
		t.Fatalf("render markdown: %v", err)
	}
	back, err := ConvertFromText(out, FormatMarkdown)
	if err != nil {
		t.Fatalf("import markdown: %v", err)
	}
	if len(back) != len(list) {
		t.Fatalf("expected %d records, got %#v\n%s", len(list), back, out)
	}
	for i := range list {
		if back[i].Name != list[i].Name || back[i].URL != list[i].URL || back[i].ImageURL != list[i].ImageURL {
			t.Fatalf("record %d mismatch: want %#v, got %#v\n%s", i, list[i], back[i], out)
		}
	}
	if back[2].Description != "uses *stars* & [brackets]" {
		t.Fatalf("description mismatch: %q", back[2].Description)
	}
}

func TestMarkdownImportIgnoresPreamble(t *testing.T) {
	body := "Intro paragraph without heading.\n\n# Manager\n\nFirst line\nsecond line\n\n* url: https://m.example/\n"
	list, err := ConvertFromText(body, FormatMarkdown)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := AccountManager{Name: "Manager", URL: "https://m.example/", Description: "First line second line"}
	if len(list) != 1 || list[0] != want {
		t.Fatalf("expected %#v, got %#v", want, list)
	}
}

func TestOrgRoundTrip(t *testing.T) {
	out, err := ConvertToText(textSample, FormatOrg)
	if err != nil {
		t.Fatalf("render org: %v", err)
	}
	if !strings.Contains(out, "* Science United") || !strings.Contains(out, "* GridRepublic") {
		t.Fatalf("unexpected org output:\n%s", out)
	}
	back, err := ConvertFromText(out, FormatOrg)
	if err != nil {
		t.Fatalf("import org: %v", err)
	}
	if len(back) != 2 || back[0].Name != "Science United" || back[1].Name != "GridRepublic" {
		t.Fatalf("names not preserved: %#v", back)
	}
	if back[1].URL != "https://www.gridrepublic.org/" {
		t.Fatalf("url not preserved: %#v", back[1])
	}
	if !strings.Contains(back[0].Description, "participate in BOINC") {
		t.Fatalf("description not preserved: %#v", back[0])
	}
}

func TestJSONRoundTrip(t *testing.T) {
	out, err := ConvertToText(textSample, FormatJSON)
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if !strings.Contains(out, `"image_url": "https://boinc.berkeley.edu/images/su_512.png"`) {
		t.Fatalf("unexpected json:\n%s", out)
	}
	back, err := ConvertFromText(out, FormatJSON)
	if err != nil {
		t.Fatalf("import json: %v", err)
	}
	if len(back) != 2 || back[0] != textSample[0] || back[1] != textSample[1] {
		t.Fatalf("json roundtrip mismatch: %#v", back)
	}
	empty, err := ConvertToText(nil, FormatJSON)
	if err != nil || empty != "[]" {
		t.Fatalf("expected [] for empty list, got %q (%v)", empty, err)
	}
}

func TestTextRendering(t *testing.T) {
	out, err := ConvertToText(textSample, FormatText)
	if err != nil {
		t.Fatalf("render text: %v", err)
	}
	lines := strings.Split(out, "\n")
	if lines[0] != "Science United" || lines[1] != "  URL: https://scienceunited.org/" {
		t.Fatalf("unexpected text output:\n%s", out)
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := ConvertToText(textSample, Format("yaml")); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if _, err := ConvertFromText("", FormatText); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented for text import, got %v", err)
	}
}
