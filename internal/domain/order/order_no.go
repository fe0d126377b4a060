package order

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderNo 生成订单号
// 格式:ORD-<毫秒时间戳>-<12位十六进制随机串>
// 示例:ORD-1699248000123-3f9a0c71d2e4
// 随机部分取自UUIDv4的前48位;极小概率的冲突由唯一索引兜底,调用方换号重试
func GenerateOrderNo() string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(id[:6]))
}
