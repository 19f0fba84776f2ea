package xrotate

// Policy 轮转策略
//
// 在每次写入之前调用：current 为活动文件当前大小，pending 为即将写入的字节数。
// 返回 true 时先轮转再写入。实现必须是无状态或自身并发安全的。
type Policy interface {
	ShouldRotate(current, pending int64) bool
}

// SizePolicy 按字节阈值轮转
//
// 当写入后的大小会超过 MaxBytes 时轮转。空文件从不轮转：
// 单条超过阈值的记录直接写入空文件，文件超出阈值的部分不超过这一条记录的长度。
// MaxBytes <= 0 表示不按大小轮转。
type SizePolicy struct {
	MaxBytes int64
}

// ShouldRotate 实现 Policy
func (p SizePolicy) ShouldRotate(current, pending int64) bool {
	if p.MaxBytes <= 0 || current == 0 {
		return false
	}
	return current+pending > p.MaxBytes
}

// NeverPolicy 从不自动轮转，仅响应手动 Rotate
type NeverPolicy struct{}

// ShouldRotate 实现 Policy
func (NeverPolicy) ShouldRotate(int64, int64) bool { return false }
