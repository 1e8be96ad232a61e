package main

import "testing"

func TestLexerPunctuationAndOperators(t *testing.T) {
	toks := NewLexer("label: DB 1,2 ($+1)").Tokens()
	var types []TokenType
	for _, tk := range toks {
		types = append(types, tk.Type)
	}
	want := []TokenType{
		TokIdent, TokColon, TokIdent, TokNumber, TokComma, TokNumber,
		TokLParen, TokDollar, TokPlus, TokNumber, TokRParen, TokEOF,
	}
	if len(types) != len(want) {
		t.Fatalf("got %d tokens %v, want %d tokens %v", len(types), types, len(want), want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestLexerHexNumberSuffix(t *testing.T) {
	tok := NewLexer("0FFH").Next()
	if tok.Type != TokNumber || tok.Text != "0FFH" {
		t.Errorf("got %+v, want TokNumber 0FFH", tok)
	}
}

func TestLexerHexNumberPrefix(t *testing.T) {
	tok := NewLexer("0x40000000").Next()
	if tok.Type != TokNumber || tok.Text != "0x40000000" {
		t.Errorf("got %+v, want TokNumber 0x40000000", tok)
	}
}

func TestLexerQuotedString(t *testing.T) {
	tok := NewLexer(`"hello"`).Next()
	if tok.Type != TokString || tok.Text != "hello" {
		t.Errorf("got %+v, want TokString hello", tok)
	}
}

func TestLexerDoubledQuoteEscapesLiteralQuote(t *testing.T) {
	tok := NewLexer(`"a""b"`).Next()
	if tok.Type != TokString || tok.Text != `a"b` {
		t.Errorf("got %+v, want TokString a\"b", tok)
	}
}

func TestLexerIdentifierAllowsDigitsAfterFirstChar(t *testing.T) {
	tok := NewLexer("LABEL1").Next()
	if tok.Type != TokIdent || tok.Text != "LABEL1" {
		t.Errorf("got %+v, want TokIdent LABEL1", tok)
	}
}

func TestLexerEmptyLineYieldsEOF(t *testing.T) {
	tok := NewLexer("   ").Next()
	if tok.Type != TokEOF {
		t.Errorf("got %+v, want TokEOF", tok)
	}
}
