package utils

import "github.com/samber/lo"

// Find 按ID查找数据
// 功能：ids为空时返回全部数据；否则按ids顺序返回找到的数据，重复ID只返回一次
// 返回：okData-找到的数据，failedIDs-不存在的ID
func Find[K comparable, T any](dataMap map[K]T, data []T, ids []K) (okData []T, failedIDs []K) {
	if len(ids) == 0 {
		return data, nil
	}
	ids = lo.Uniq(ids)
	found, failed := lo.FilterReject(ids, func(id K, _ int) bool {
		_, ok := dataMap[id]
		return ok
	})
	return lo.Map(found, func(id K, _ int) T { return dataMap[id] }), failed
}
