// CLAUDE:SUMMARY Compiles dictionary variants into whole-word, case-insensitive rules applied longest first.
package terms

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var errEmptyVariant = errors.New("empty variant")

// foldKey is the identity under which two spellings count as the same
// variant: NFC-composed, then fully case folded ("STRASSE" == "Straße").
func foldKey(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Rule rewrites one variant to its canonical name.
type Rule struct {
	Canonical string
	Variant   string
	length    int
	re        *regexp.Regexp
}

// RuleSet is an ordered list of rules, longest variant first.
type RuleSet []Rule

// Compile turns every (canonical, variant) pair of d into a Rule. The
// canonical name is compiled too so that its casing gets normalized.
// Variants that cannot be compiled are skipped and reported in errs.
func Compile(d *Dictionary) (RuleSet, []error) {
	var (
		rules RuleSet
		errs  []error
	)
	for _, e := range d.Entries() {
		seen := make(map[string]bool, len(e.Variants)+1)
		candidates := append([]string{e.Canonical}, e.Variants...)
		for _, v := range candidates {
			vv := strings.TrimSpace(v)
			if vv == "" {
				errs = append(errs, &PatternError{Canonical: e.Canonical, Variant: v, Err: errEmptyVariant})
				continue
			}
			key := foldKey(vv)
			if seen[key] {
				continue
			}
			seen[key] = true

			r, err := NewRule(e.Canonical, vv)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].length > rules[j].length })
	return rules, errs
}

// NewRule compiles a single variant. Composed and decomposed Unicode forms
// of the variant both match.
func NewRule(canonical, variant string) (Rule, error) {
	if strings.TrimSpace(variant) == "" {
		return Rule{}, &PatternError{Canonical: canonical, Variant: variant, Err: errEmptyVariant}
	}
	re, err := regexp.Compile(variantPattern(variant))
	if err != nil {
		return Rule{}, &PatternError{Canonical: canonical, Variant: variant, Err: err}
	}
	return Rule{
		Canonical: canonical,
		Variant:   variant,
		length:    utf8.RuneCountInString(norm.NFC.String(variant)),
		re:        re,
	}, nil
}

func variantPattern(v string) string {
	forms := []string{v}
	for _, f := range []string{norm.NFC.String(v), norm.NFD.String(v)} {
		dup := false
		for _, g := range forms {
			if g == f {
				dup = true
				break
			}
		}
		if !dup {
			forms = append(forms, f)
		}
	}
	quoted := make([]string, len(forms))
	for i, f := range forms {
		quoted[i] = regexp.QuoteMeta(f)
	}
	if len(quoted) == 1 {
		return "(?i)" + quoted[0]
	}
	return "(?i)(?:" + strings.Join(quoted, "|") + ")"
}

// Apply replaces every whole-word occurrence of the variant in s.
func (r Rule) Apply(s string) string {
	if r.re == nil || s == "" {
		return s
	}
	var (
		b       strings.Builder
		last    int
		pos     int
		changed bool
	)
	for pos < len(s) {
		loc := r.re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start || !wordBounded(s, start, end) {
			_, size := utf8.DecodeRuneInString(s[start:])
			pos = start + size
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(r.Canonical)
		last, pos, changed = end, end, true
	}
	if !changed {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// Apply runs every rule in order over s.
func (rs RuleSet) Apply(s string) string {
	for _, r := range rs {
		s = r.Apply(s)
	}
	return s
}

// wordBounded reports whether s[start:end] does not continue a word on
// either side. An edge of the match that is itself a non-word rune needs
// no boundary.
func wordBounded(s string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(s[start:])
	if isWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(prev) {
			return false
		}
	}
	lastRune, _ := utf8.DecodeLastRuneInString(s[:end])
	if isWordRune(lastRune) && end < len(s) {
		next, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
