package editors

import (
	"errors"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/domain"
	schemas "github.com/goliatone/go-cms-inline/internal/validation"
)

func TestDecodeSelectsConcreteType(t *testing.T) {
	meta, err := Decode(domain.ElementStat, map[string]any{
		"value":   "1,200",
		"styling": map[string]any{"valueSize": 40},
	})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	stat, ok := meta.(StatMeta)
	if !ok {
		t.Fatalf("expected StatMeta, got %T", meta)
	}
	if stat.Value != "1,200" || stat.Styling.ValueSize != 40 {
		t.Fatalf("unexpected stat %+v", stat)
	}

	fallback, err := Decode("unknown", nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := fallback.(TextMeta); !ok {
		t.Fatalf("expected TextMeta fallback, got %T", fallback)
	}
}

func TestDecodeRejectsMistypedValues(t *testing.T) {
	_, err := Decode(domain.ElementIcon, map[string]any{"size": "huge"})
	if !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata, got %v", err)
	}
}

func TestEncodeOmitsEmptyValues(t *testing.T) {
	record, err := Encode(ImageMeta{Src: "/hero.jpg", Alt: Localized{En: "Campus"}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if record["src"] != "/hero.jpg" {
		t.Fatalf("unexpected record %+v", record)
	}
	alt := record["alt"].(map[string]any)
	if alt["en"] != "Campus" {
		t.Fatalf("unexpected alt %+v", alt)
	}
	if _, ok := alt["ar"]; ok {
		t.Fatalf("empty locale should be omitted")
	}

	empty, _ := Encode(TextMeta{})
	if len(empty) != 0 {
		t.Fatalf("expected empty record, got %+v", empty)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]struct {
		in   any
		want float64
	}{
		"seconds":  {"0.3s", 0.3},
		"pixels":   {" 24px", 24},
		"negative": {"-1.5rem", -1.5},
		"leading":  {".5", 0.5},
		"garbage":  {"fast", NumberSentinel},
		"empty":    {"", NumberSentinel},
		"float":    {2.5, 2.5},
		"int":      {3, 3},
		"bool":     {true, NumberSentinel},
		"nil":      {nil, NumberSentinel},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ParseNumber(tc.in); got != tc.want {
				t.Fatalf("ParseNumber(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseInteger(t *testing.T) {
	cases := map[string]struct {
		in   any
		want int
	}{
		"pixels":    {"24px", 24},
		"truncated": {"2.9", 2},
		"negative":  {-7.5, -7},
		"huge":      {"1e300", int(NumberSentinel)},
		"tiny":      {-1e300, int(NumberSentinel)},
		"garbage":   {"auto", int(NumberSentinel)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ParseInteger(tc.in); got != tc.want {
				t.Fatalf("ParseInteger(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidatorRules(t *testing.T) {
	registry, err := schemas.NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	v := NewValidator(registry)

	if err := v.ValidateMetadata(domain.ElementImage, domain.StatusDraft, nil); err != nil {
		t.Fatalf("draft image without src should pass, got %v", err)
	}

	err = v.ValidateMetadata(domain.ElementImage, domain.StatusPublished, nil)
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error for published image without src, got %v", err)
	}
	var typed *goerrors.Error
	if !goerrors.As(err, &typed) || len(typed.ValidationErrors) == 0 || typed.ValidationErrors[0].Field != "metadata.src" {
		t.Fatalf("expected metadata.src field error, got %+v", typed)
	}

	err = v.ValidateMetadata(domain.ElementIcon, domain.StatusDraft, map[string]any{"size": "big"})
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected schema validation error, got %v", err)
	}

	err = v.ValidateMetadata(domain.ElementButton, domain.StatusDraft, map[string]any{"url": "javascript:alert(1)"})
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected link validation error, got %v", err)
	}

	err = v.ValidateMetadata(domain.ElementBackground, domain.StatusDraft, map[string]any{"kind": "image"})
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected imageSrc required error, got %v", err)
	}
}

func TestPreviewRendersMarkdown(t *testing.T) {
	p := NewPreviewer(PreviewOptions{})
	out, err := p.Preview("**bold** and https://example.com")
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if want := "<strong>bold</strong>"; !strings.Contains(out, want) {
		t.Fatalf("expected %q in %q", want, out)
	}
	if !strings.Contains(out, `href="https://example.com"`) {
		t.Fatalf("expected linkified url in %q", out)
	}

	raw, err := p.PreviewState(State{ContentEn: "<b>x</b>", ActiveLocale: domain.LocaleEnglish, Metadata: map[string]any{"format": "html"}})
	if err != nil || raw != "<b>x</b>" {
		t.Fatalf("html content should pass through, got %q err %v", raw, err)
	}
}
