package parser

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"resume-ranker/internal/types"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// 电话候选：可选的国际前缀，随后是数字、空格、括号、点或连字符，不跨行
	phoneCandidatePattern = regexp.MustCompile(`\+?\(?\d[\d \t().\-]{6,}\d`)

	orgKeywords = `(?:(?:University|College|Institute|School|Academy|Polytechnic|Conservatory|Corporation|Company|Technologies|Labs?|LLC)\b|(?:Inc|Corp|Ltd)\b\.?|Co\.)`
	capWord     = `[A-Z][\w&'.\-]*`

	// 以机构关键字结尾的大写词组，可带 "of ..." 后缀，例如 "Stanford University"、
	// "Massachusetts Institute of Technology"、"Acme Corp"
	orgPattern = regexp.MustCompile(`\b(?:` + capWord + `[ \t]+){0,4}` + orgKeywords + `(?:[ \t]+of(?:[ \t]+` + capWord + `){1,4})?`)

	monthNames = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?`
	dateToken  = `(?:` + monthNames + `\s+\d{4}|\d{1,2}/\d{4}|\d{4}[./\-]\d{1,2}|(?:19|20)\d{2})`

	// 日期或日期区间，例如 "Jan 2019 - Present"、"2018-2022"、"03/2020"
	datePattern = regexp.MustCompile(`(?i)\b` + dateToken + `(?:\s*(?:-|–|—|to)\s*(?:` + dateToken + `|present|current|now))?\b`)
)

// PatternRecognizer 用正则识别 EMAIL、PHONE、ORG、DATE，电话号码再用 libphonenumber 校验。
// ORG 只认带学校或公司关键字的名称。
type PatternRecognizer struct {
	region string
}

// NewPatternRecognizer region 为电话号码的默认地区，例如 "US"
func NewPatternRecognizer(region string) *PatternRecognizer {
	if region == "" {
		region = "US"
	}
	return &PatternRecognizer{region: strings.ToUpper(region)}
}

// Recognize 实现 processor.EntityRecognizer，结果按出现位置排序
func (p *PatternRecognizer) Recognize(_ context.Context, text string) ([]types.Entity, error) {
	var entities []types.Entity
	taken := make([][2]int, 0)

	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		entities = append(entities, types.Entity{Label: types.LabelEmail, Text: text[loc[0]:loc[1]], Start: loc[0]})
		taken = append(taken, [2]int{loc[0], loc[1]})
	}

	for _, loc := range p.findPhones(text) {
		if overlaps(taken, loc) {
			continue
		}
		entities = append(entities, types.Entity{Label: types.LabelPhone, Text: strings.TrimSpace(text[loc[0]:loc[1]]), Start: loc[0]})
		taken = append(taken, [2]int{loc[0], loc[1]})
	}

	for _, loc := range orgPattern.FindAllStringIndex(text, -1) {
		if overlaps(taken, loc) {
			continue
		}
		entities = append(entities, types.Entity{Label: types.LabelOrg, Text: text[loc[0]:loc[1]], Start: loc[0]})
		taken = append(taken, [2]int{loc[0], loc[1]})
	}

	for _, loc := range datePattern.FindAllStringIndex(text, -1) {
		if overlaps(taken, loc) {
			continue
		}
		entities = append(entities, types.Entity{Label: types.LabelDate, Text: text[loc[0]:loc[1]], Start: loc[0]})
	}

	sort.SliceStable(entities, func(i, j int) bool { return entities[i].Start < entities[j].Start })
	return entities, nil
}

// findPhones 候选被拒绝时从下一个数字串重新查找，
// 避免与前面的邮编、年份连成一个过长的候选而漏掉真正的号码
func (p *PatternRecognizer) findPhones(text string) [][]int {
	var found [][]int
	pos := 0
	for pos < len(text) {
		loc := phoneCandidatePattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if p.isPhoneNumber(strings.TrimSpace(text[start:end])) {
			found = append(found, []int{start, end})
			pos = end
			continue
		}
		pos = start + 1
		for pos < len(text) && text[pos] >= '0' && text[pos] <= '9' {
			pos++
		}
	}
	return found
}

// IsOrgName 整段文本是否是一个带机构关键字的名称
func IsOrgName(text string) bool {
	loc := orgPattern.FindStringIndex(text)
	return loc != nil && loc[0] == 0 && loc[1] == len(text)
}

func (p *PatternRecognizer) isPhoneNumber(candidate string) bool {
	digits := 0
	for _, r := range candidate {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	// 纯年份区间（如 2018-2022）也会命中候选正则
	if digits < 7 || digits > 15 || datePattern.MatchString(candidate) && digits <= 8 {
		return false
	}
	num, err := phonenumbers.Parse(candidate, p.region)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}

func overlaps(spans [][2]int, loc []int) bool {
	for _, s := range spans {
		if loc[0] < s[1] && s[0] < loc[1] {
			return true
		}
	}
	return false
}
