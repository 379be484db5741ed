package processor

import (
	"resume-ranker/internal/types"
)

// ExtractResumeDetails 单次遍历实体，把它们映射到固定字段。
// Name、Email、Phone 取第一个匹配；Education（ORG 或 WORK_OF_ART）和
// Experience（DATE）取最后一个匹配。Skills 不做填充。
func ExtractResumeDetails(entities []types.Entity) types.ResumeDetails {
	var details types.ResumeDetails
	for _, ent := range entities {
		switch ent.Label {
		case types.LabelPerson:
			if details.Name == "" {
				details.Name = ent.Text
			}
		case types.LabelEmail:
			if details.Email == "" {
				details.Email = ent.Text
			}
		case types.LabelPhone:
			if details.Phone == "" {
				details.Phone = ent.Text
			}
		case types.LabelOrg, types.LabelWorkOfArt:
			details.Education = ent.Text
		case types.LabelDate:
			details.Experience = ent.Text
		}
	}
	return details
}
