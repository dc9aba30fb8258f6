package lemma

// Closed-class word tables. Only the tags that exclude a word from the
// index are listed; everything else is TagLexical.

var englishFunctionWords = tagTable(map[Tag][]string{
	TagPreposition: {
		"about", "above", "across", "after", "against", "along", "among", "around",
		"at", "before", "behind", "below", "beneath", "beside", "between", "beyond",
		"by", "despite", "down", "during", "except", "for", "from", "in", "inside",
		"into", "near", "of", "off", "on", "onto", "out", "outside", "over", "past",
		"since", "through", "throughout", "till", "to", "toward", "towards", "under",
		"underneath", "until", "up", "upon", "via", "with", "within", "without",
	},
	TagConjunction: {
		"and", "but", "or", "nor", "yet", "so", "although", "because", "though",
		"unless", "whereas", "while", "whether", "if", "than", "either", "neither",
	},
	TagInterjection: {
		"oh", "ah", "aha", "alas", "wow", "hey", "oops", "ouch", "hmm", "ugh",
		"yay", "hurray", "hooray", "bravo", "hello", "hi", "eh", "huh",
	},
})

var russianFunctionWords = tagTable(map[Tag][]string{
	TagPreposition: {
		"в", "во", "на", "с", "со", "к", "ко", "по", "за", "из", "изо", "от", "ото",
		"до", "о", "об", "обо", "у", "для", "без", "безо", "под", "подо", "над",
		"надо", "при", "про", "через", "перед", "передо", "между", "сквозь",
		"вокруг", "около", "после", "среди", "вместо", "кроме", "ради", "возле",
		"мимо", "вдоль", "внутри", "против", "сверх", "вне",
	},
	TagConjunction: {
		"и", "а", "но", "или", "либо", "да", "что", "чтобы", "если", "когда",
		"хотя", "потому", "поэтому", "зато", "однако", "тоже", "также", "ни",
		"будто", "словно", "пока", "едва", "причем", "притом", "тогда",
	},
	TagInterjection: {
		"ах", "ох", "эх", "ой", "ай", "ого", "ура", "увы", "эй", "ух", "фу",
		"ага", "браво", "ау", "тсс", "батюшки",
	},
})

func tagTable(groups map[Tag][]string) map[string]Tag {
	table := make(map[string]Tag)
	for tag, words := range groups {
		for _, w := range words {
			table[w] = tag
		}
	}
	return table
}
