// Package lemma reduces text to normalized word forms.
//
// A Lemmatizer strips HTML markup, lowercases the text, splits it into
// Latin and Cyrillic words and maps every word to its canonical form.
// Words made only of Latin letters go to the English analyzer, every other
// word goes to the Russian analyzer. Functional words (prepositions,
// conjunctions and interjections) are dropped.
//
// Normal forms are produced by the Snowball stemmers from
// github.com/kljensen/snowball, so the canonical form of a word is its stem:
// "леопарда" and "леопарды" both map to "леопард".
package lemma
