package types

import "time"

// EntityLabel 命名实体标签，沿用 OntoNotes 的标签命名
type EntityLabel string

const (
	// LabelPerson 人名
	LabelPerson EntityLabel = "PERSON"
	// LabelEmail 邮箱地址
	LabelEmail EntityLabel = "EMAIL"
	// LabelPhone 电话号码
	LabelPhone EntityLabel = "PHONE"
	// LabelOrg 组织机构（学校、公司）
	LabelOrg EntityLabel = "ORG"
	// LabelWorkOfArt 作品名称，部分模型会把学位、课程识别为该标签
	LabelWorkOfArt EntityLabel = "WORK_OF_ART"
	// LabelDate 日期或时间段
	LabelDate EntityLabel = "DATE"
	// LabelGPE 地理政治实体
	LabelGPE EntityLabel = "GPE"
)

// UnknownOffset marks an entity whose position in the source text is not known.
const UnknownOffset = -1

// Entity 识别出的一个命名实体片段
type Entity struct {
	Label EntityLabel `json:"label"`
	Text  string      `json:"text"`
	Start int         `json:"start"` // 在原文中的字节偏移，未知时为 UnknownOffset
}

// ResumeUpload 一份待处理的简历文件
type ResumeUpload struct {
	Filename string
	Data     []byte
}

// ResumeDetails 从简历中抽取的固定字段，空字符串表示未识别
type ResumeDetails struct {
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Experience string   `json:"experience,omitempty"`
	Education  string   `json:"education,omitempty"`
}

// IsEmpty reports whether no slot was populated.
func (d ResumeDetails) IsEmpty() bool {
	return d.Name == "" && d.Email == "" && d.Phone == "" &&
		len(d.Skills) == 0 && d.Experience == "" && d.Education == ""
}

// RankedResume 排序结果中的一项
type RankedResume struct {
	Filename string        `json:"filename"`
	Details  ResumeDetails `json:"details"`
	Score    float64       `json:"score"`
}

// RankingRun 一次完整的排序请求及其结果
type RankingRun struct {
	ID               string         `json:"run_id"`
	JobDescription   string         `json:"job_description"`
	Results          []RankedResume `json:"results"`
	DiversityMessage string         `json:"diversity_message"`
	CreatedAt        time.Time      `json:"created_at"`
}
