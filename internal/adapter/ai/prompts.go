package ai

import (
	"fmt"
	"strings"

	"github.com/eslsoft/taboo/internal/usecase"
)

func translationPrompt(req usecase.TranslationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You translate Taboo game cards from %s to %s.\n", req.SourceLanguage.Name(), req.TargetLanguage.Name())
	b.WriteString("Translate the answer word and every key word as one coherent set so the key words still describe the answer.\n")
	if req.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.Category)
	}
	fmt.Fprintf(&b, "Answer word: %s\n", req.AnswerWord)
	fmt.Fprintf(&b, "Key words: %s\n", strings.Join(req.KeyWords, ", "))
	b.WriteString("Rules:\n")
	b.WriteString("- Return exactly one entry per key word, with the key word copied unchanged into \"original\".\n")
	b.WriteString("- Each translation is a single common word or short phrase; no two translations may be equal.\n")
	b.WriteString("Respond with JSON only:\n")
	b.WriteString(`{"answer_word": "<translated answer>", "key_words": [{"original": "<key word>", "translated": "<translation>"}]}`)
	return b.String()
}

const noLooseMatches = "Synonyms, translations, derived words and merely related words do not count: \"driver\" is not a form of \"drive\", \"casero\" is not a form of \"casa\".\n"

func evaluationPrompt(req usecase.EvaluationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You judge a Taboo game description written in %s.\n", req.Language.Name())
	fmt.Fprintf(&b, "The player describes the answer word %q and should use these key words: %s.\n", req.AnswerWord, strings.Join(req.KeyWords, ", "))
	b.WriteString("A key word counts as used when it appears exactly or as an inflection of itself: plural or singular, verb conjugation or tense, gender or case agreement.\n")
	b.WriteString(noLooseMatches)
	b.WriteString("Report answer_word_mentioned when the description names the answer word or a form of it.\n")
	b.WriteString("Rate naturalness and creativity from 0 to 10 and grade grammar as correct, minor_errors or major_errors.\n")
	fmt.Fprintf(&b, "Description:\n\"\"\"\n%s\n\"\"\"\n", req.Description)
	b.WriteString("Respond with JSON only:\n")
	b.WriteString(`{"words": [{"key_word": "<key word>", "found": true, "used_as": "<form used>", "context": "<short quote>"}], `)
	b.WriteString(`"answer_word_mentioned": false, "naturalness": 0, "creativity": 0, "grammar": "correct", "feedback": "<one sentence>"}`)
	return b.String()
}

func samplePrompt(req usecase.SampleRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short Taboo game description in %s for the answer word %q.\n", req.Language.Name(), req.AnswerWord)
	fmt.Fprintf(&b, "Use all of these key words naturally: %s.\n", strings.Join(req.KeyWords, ", "))
	b.WriteString("Never write the answer word itself. Two or three sentences.\n")
	b.WriteString("Respond with JSON only:\n")
	b.WriteString(`{"description": "<text>"}`)
	return b.String()
}
