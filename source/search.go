package source

import (
	"strings"

	"github.com/jing2uo/tsanalyst/model"
)

const (
	SearchPerMarket = 5
	SearchLimit     = 10
)

// Match 名称或代码包含关键字, 最多 limit 条
func Match(infos []model.BasicInfo, keyword string, limit int) []model.BasicInfo {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" || limit <= 0 {
		return nil
	}

	var hits []model.BasicInfo
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name), keyword) ||
			strings.Contains(strings.ToLower(info.TSCode), keyword) {
			hits = append(hits, info)
			if len(hits) == limit {
				break
			}
		}
	}
	return hits
}

// Search A 股和港股各取前 5 条, 合计不超过 10 条
func Search(domestic, hk []model.BasicInfo, keyword string) []model.BasicInfo {
	res := Match(domestic, keyword, SearchPerMarket)
	res = append(res, Match(hk, keyword, SearchPerMarket)...)
	if len(res) > SearchLimit {
		res = res[:SearchLimit]
	}
	return res
}
