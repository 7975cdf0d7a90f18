package mq

import (
	jsoniter "github.com/json-iterator/go"
)

// json 与encoding/json行为一致（字段顺序、HTML转义、MarshalJSON方法）
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal 消息体序列化
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 消息体反序列化
func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
