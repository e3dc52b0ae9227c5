// model/codec.go
// 线上编解码统一走 canonical CBOR：键序确定，保证各节点对同一 payload
// 算出同一哈希。
package model

import (
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Marshal canonical CBOR 编码
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal CBOR 解码
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}
