package smartcache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest 计算规则集的短 Hash。
// 按排序后的字段顺序写入，同一规则集在任何进程中得到相同结果。
func (rs RuleSet) Digest() string {
	return Encode(rs.Normalize()).Digest()
}

// Digest 计算记录的短 Hash。
func (rec Record) Digest() string {
	h := sha256.New()
	for _, k := range rec.Keys() {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(rec[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:8]
}
