//go:build !llti_release

package orderbook

// checked 打开价格区间和哨兵 id 校验。用 -tags llti_release 编译可去掉。
const checked = true
