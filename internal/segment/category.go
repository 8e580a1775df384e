// Package segment turns human section labels into aligned transcript slices.
package segment

import (
	"fmt"
	"strings"
)

// Category is one of the fixed lesson section types recognized by the
// pipeline. Exports always emit columns for all categories in canonical
// order even when a recording lacks some of them.
type Category string

const (
	CategorySalam      Category = "Salam Time/Ice Breaker"
	CategoryDiscussion Category = "Discussion Topic"
	CategoryQuran      Category = "Quran Recitation"
	CategoryArabic     Category = "Arabic"
	CategoryWorship    Category = "Worship"
)

// Categories lists all section types in canonical export order.
func Categories() []Category {
	return []Category{
		CategorySalam,
		CategoryDiscussion,
		CategoryQuran,
		CategoryArabic,
		CategoryWorship,
	}
}

// Column returns the CSV header name for the category.
func (c Category) Column() string {
	switch c {
	case CategorySalam:
		return "Salam_Time_Ice_Breaker"
	case CategoryDiscussion:
		return "Discussion_Topic"
	case CategoryQuran:
		return "Quran_Recitation"
	case CategoryArabic:
		return "Arabic"
	case CategoryWorship:
		return "Worship"
	}
	return strings.ReplaceAll(string(c), " ", "_")
}

// Key returns the JSON object key for the category.
func (c Category) Key() string {
	switch c {
	case CategorySalam:
		return "salam_time_ice_breaker"
	case CategoryDiscussion:
		return "discussion_topic"
	case CategoryQuran:
		return "quran_recitation"
	case CategoryArabic:
		return "arabic"
	case CategoryWorship:
		return "worship"
	}
	key := strings.ToLower(string(c))
	key = strings.NewReplacer(" ", "_", "/", "_").Replace(key)
	return key
}

var categoryAliases = map[string]Category{
	"salam time/ice breaker": CategorySalam,
	"salam time":             CategorySalam,
	"salam":                  CategorySalam,
	"ice breaker":            CategorySalam,
	"icebreaker":             CategorySalam,
	"discussion topic":       CategoryDiscussion,
	"discussion":             CategoryDiscussion,
	"topic":                  CategoryDiscussion,
	"quran recitation":       CategoryQuran,
	"quran":                  CategoryQuran,
	"qur'an recitation":      CategoryQuran,
	"qur'an":                 CategoryQuran,
	"recitation":             CategoryQuran,
	"arabic":                 CategoryArabic,
	"arabic vocab":           CategoryArabic,
	"arabic vocabulary":      CategoryArabic,
	"worship":                CategoryWorship,
	"acts of worship":        CategoryWorship,
}

// ParseCategory maps a free-form section name to a known category.
func ParseCategory(name string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Trim(key, ":-")
	key = strings.TrimSpace(key)
	if cat, ok := categoryAliases[key]; ok {
		return cat, nil
	}
	return "", fmt.Errorf("unrecognized section type %q", name)
}
