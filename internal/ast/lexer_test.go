package ast

import "testing"

func TestLexBrackets(t *testing.T) {
	toks, err := Lex("[a b]")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var kinds []TokenKind
	for _, tok := range toks {
		if tok.Kind == TokWhitespace {
			continue
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{TokBracketOpen, TokWord, TokWord, TokBracketClose}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	cases := []struct {
		src  string
		kind TokenKind
		text string
	}{
		{"42", TokInt, "42"},
		{"-42", TokInt, "-42"},
		{"1_000", TokInt, "1000"},
		{"3.14", TokFloat, "3.14"},
		{"10xFF", TokHex, "FF"},
		{"2b1010", TokBin, "1010"},
	}
	for _, c := range cases {
		toks, err := Lex(c.src)
		if err != nil {
			t.Fatalf("Lex(%q): %v", c.src, err)
		}
		if len(toks) == 0 || toks[0].Kind != c.kind || toks[0].Text != c.text {
			t.Errorf("Lex(%q) = %v, want kind %v text %q", c.src, toks, c.kind, c.text)
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(`"a\nb\x41"`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if toks[0].Kind != TokString || toks[0].Text != "a\nbA" {
		t.Fatalf("got %v, want decoded string token", toks[0])
	}
}

func TestLexCharLiteralWrongLength(t *testing.T) {
	if _, err := Lex("'ab'"); err == nil {
		t.Fatal("expected error for multi-codepoint char literal")
	}
}

func TestLexNestedComment(t *testing.T) {
	toks, err := Lex("a {this {is} ignored} b")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var words []string
	for _, tok := range toks {
		if tok.Kind == TokWord {
			words = append(words, tok.Text)
		}
	}
	if len(words) != 2 || words[0] != "a" || words[1] != "b" {
		t.Fatalf("got %v, want [a b]", words)
	}
}

func TestLexUnclosedComment(t *testing.T) {
	if _, err := Lex("a { unclosed"); err == nil {
		t.Fatal("expected error for unclosed comment")
	}
}

func TestLexNegativeCommentNesting(t *testing.T) {
	if _, err := Lex("a } b"); err == nil {
		t.Fatal("expected error for negative comment nesting")
	}
}
