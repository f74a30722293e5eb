package sanitizer

import "strings"

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return Pipeline{strings.TrimSpace, strings.ToLower}.Apply(email)
}

func NormalizeRegistration(registration string) string {
	return Pipeline{TrimAndNormalize, strings.ToUpper}.Apply(registration)
}

func NormalizeFreeText(text string) string {
	return strings.TrimSpace(text)
}
