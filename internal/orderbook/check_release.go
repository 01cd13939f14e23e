//go:build llti_release

package orderbook

const checked = false
