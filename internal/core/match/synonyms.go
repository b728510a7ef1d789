package match

import "strings"

// synonymGroups is the bidirectional domain synonym table. Every term in a
// group substitutes for every other term in the same group.
var synonymGroups = [][]string{
	{"tfsa", "tax-free savings account", "tax free savings account"},
	{"rrsp", "retirement savings plan", "registered retirement savings plan"},
	{"resp", "education savings plan", "registered education savings plan"},
	{"credit score", "credit rating", "credit history"},
	{"budget", "spending plan", "monthly budget"},
	{"transaction", "purchase", "payment", "charge"},
	{"account", "bank account"},
	{"loan", "borrowing", "credit line", "line of credit"},
	{"interest", "interest rate", "apr"},
	{"mortgage", "home loan"},
	{"fee", "charge", "service fee"},
	{"deposit", "top up", "add money"},
	{"withdraw", "withdrawal", "take out money"},
	{"statement", "account statement", "monthly statement"},
	{"invest", "investing", "investment"},
	{"save", "saving", "savings"},
	{"category", "categories", "categorization"},
	{"receipt", "bill", "invoice"},
	{"subscription", "recurring payment", "recurring charge"},
	{"limit", "spending limit", "cap"},
}

// ExpandQueryWithSynonyms returns the original query plus every variant
// produced by substituting a matched term with each of its synonyms.
func ExpandQueryWithSynonyms(query string) []string {
	normalized := NormalizeQuery(query)
	expanded := []string{normalized}
	seen := map[string]struct{}{normalized: {}}

	for _, group := range synonymGroups {
		for _, term := range group {
			if !strings.Contains(normalized, term) {
				continue
			}
			for _, substitute := range group {
				if substitute == term {
					continue
				}
				variant := strings.ReplaceAll(normalized, term, substitute)
				if _, ok := seen[variant]; ok {
					continue
				}
				seen[variant] = struct{}{}
				expanded = append(expanded, variant)
			}
		}
	}
	return expanded
}

// domainTerms is the finance vocabulary used for the semantic tier and the
// locale/product boosts.
var domainTerms = map[string]struct{}{
	"tfsa": {}, "rrsp": {}, "resp": {}, "cra": {}, "gst": {}, "hst": {},
	"budget": {}, "budgeting": {}, "transaction": {}, "transactions": {},
	"account": {}, "accounts": {}, "credit": {}, "debit": {}, "score": {},
	"loan": {}, "loans": {}, "mortgage": {}, "interest": {}, "savings": {},
	"invest": {}, "investment": {}, "investments": {}, "tax": {}, "taxes": {},
	"fee": {}, "fees": {}, "deposit": {}, "withdrawal": {}, "balance": {},
	"statement": {}, "receipt": {}, "receipts": {}, "subscription": {},
	"category": {}, "income": {}, "expense": {}, "expenses": {}, "bill": {},
	"bills": {}, "card": {}, "payment": {}, "payments": {}, "refund": {},
	"currency": {}, "exchange": {}, "transfer": {}, "pension": {}, "insurance": {},
}

// localeTerms are Canadian-finance markers driving the locale boost.
var localeTerms = map[string]struct{}{
	"tfsa": {}, "rrsp": {}, "resp": {}, "cra": {}, "gst": {}, "hst": {},
	"cpp": {}, "oas": {}, "ei": {},
}

// productTerms are features of the app itself driving the product boost.
var productTerms = map[string]struct{}{
	"budget": {}, "transaction": {}, "transactions": {}, "category": {},
	"receipt": {}, "receipts": {}, "subscription": {}, "statement": {},
	"account": {}, "notification": {}, "goal": {}, "goals": {}, "report": {},
}

// ExtractDomainTerms returns the deduplicated finance-domain tokens of text,
// in first-seen order.
func ExtractDomainTerms(text string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, token := range tokenize(text) {
		if _, ok := domainTerms[token]; !ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
