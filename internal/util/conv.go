package util

import (
	"strconv"

	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

// ParseID 解析路径中的自增ID
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// decimalConverters 将分数从 decimal 转成 JSON number
var decimalConverters = []copier.TypeConverter{
	{
		SrcType: decimal.Decimal{},
		DstType: float64(0),
		Fn: func(src interface{}) (interface{}, error) {
			return src.(decimal.Decimal).InexactFloat64(), nil
		},
	},
}

// CopyDTO 模型到响应结构的拷贝
func CopyDTO(to, from interface{}) error {
	return copier.CopyWithOption(to, from, copier.Option{
		DeepCopy:   true,
		Converters: decimalConverters,
	})
}
