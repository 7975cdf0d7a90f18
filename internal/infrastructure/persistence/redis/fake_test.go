package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis 以Hook方式直接应答命令,不建立网络连接
// 只实现本包用到的命令
type fakeRedis struct {
	mu       sync.Mutex
	values   map[string]string
	hashes   map[string]map[string]string
	expireAt map[string]time.Time
	calls    [][]interface{}
	failing  error
}

func newFakeClient(t *testing.T) (*redis.Client, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{
		values:   make(map[string]string),
		hashes:   make(map[string]map[string]string),
		expireAt: make(map[string]time.Time),
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", Protocol: 2})
	client.AddHook(fake)
	t.Cleanup(func() { _ = client.Close() })
	return client, fake
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (f *fakeRedis) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		return f.apply(cmd)
	}
}

func (f *fakeRedis) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if err := f.apply(cmd); err != nil {
				return err
			}
		}
		return nil
	}
}

// commands 按名称过滤已执行的命令参数
func (f *fakeRedis) commands(name string) [][]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]interface{}
	for _, args := range f.calls {
		if strings.EqualFold(fmt.Sprint(args[0]), name) {
			out = append(out, args)
		}
	}
	return out
}

func (f *fakeRedis) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = err
}

func (f *fakeRedis) live(key string) bool {
	if at, ok := f.expireAt[key]; ok && !time.Now().Before(at) {
		delete(f.values, key)
		delete(f.hashes, key)
		delete(f.expireAt, key)
	}
	_, isValue := f.values[key]
	_, isHash := f.hashes[key]
	return isValue || isHash
}

func (f *fakeRedis) del(key string) int64 {
	if !f.live(key) {
		return 0
	}
	delete(f.values, key)
	delete(f.hashes, key)
	delete(f.expireAt, key)
	return 1
}

func (f *fakeRedis) apply(cmd redis.Cmder) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	args := cmd.Args()
	f.calls = append(f.calls, args)
	if f.failing != nil {
		cmd.SetErr(f.failing)
		return f.failing
	}

	switch cmd.Name() {
	case "multi", "exec":
		return nil

	case "set", "setnx":
		key, value := args[1].(string), fmt.Sprint(args[2])
		nx := cmd.Name() == "setnx"
		var ttl time.Duration
		for i := 3; i < len(args); i++ {
			switch args[i] {
			case "nx":
				nx = true
			case "ex":
				ttl = time.Duration(args[i+1].(int64)) * time.Second
				i++
			case "px":
				ttl = time.Duration(args[i+1].(int64)) * time.Millisecond
				i++
			}
		}
		if nx && f.live(key) {
			if c, ok := cmd.(*redis.BoolCmd); ok {
				c.SetVal(false)
			}
			return nil
		}
		f.values[key] = value
		delete(f.expireAt, key)
		if ttl > 0 {
			f.expireAt[key] = time.Now().Add(ttl)
		}
		switch c := cmd.(type) {
		case *redis.BoolCmd:
			c.SetVal(true)
		case *redis.StatusCmd:
			c.SetVal("OK")
		}
		return nil

	case "get":
		key := args[1].(string)
		c := cmd.(*redis.StringCmd)
		if !f.live(key) {
			c.SetErr(redis.Nil)
			return redis.Nil
		}
		c.SetVal(f.values[key])
		return nil

	case "del":
		var n int64
		for _, key := range args[1:] {
			n += f.del(key.(string))
		}
		cmd.(*redis.IntCmd).SetVal(n)
		return nil

	case "exists":
		var n int64
		for _, key := range args[1:] {
			if f.live(key.(string)) {
				n++
			}
		}
		cmd.(*redis.IntCmd).SetVal(n)
		return nil

	case "hset":
		key := args[1].(string)
		f.live(key)
		hash, ok := f.hashes[key]
		if !ok {
			hash = make(map[string]string)
			f.hashes[key] = hash
		}
		var added int64
		for i := 2; i+1 < len(args); i += 2 {
			field := fmt.Sprint(args[i])
			if _, exists := hash[field]; !exists {
				added++
			}
			hash[field] = fmt.Sprint(args[i+1])
		}
		cmd.(*redis.IntCmd).SetVal(added)
		return nil

	case "expire":
		key := args[1].(string)
		ok := f.live(key)
		if ok {
			f.expireAt[key] = time.Now().Add(time.Duration(args[2].(int64)) * time.Second)
		}
		cmd.(*redis.BoolCmd).SetVal(ok)
		return nil

	case "hgetall":
		key := args[1].(string)
		out := make(map[string]string)
		if f.live(key) {
			for k, v := range f.hashes[key] {
				out[k] = v
			}
		}
		cmd.(*redis.MapStringStringCmd).SetVal(out)
		return nil

	case "evalsha":
		// 本包唯一的脚本:值匹配时删除
		key, token := args[3].(string), fmt.Sprint(args[4])
		var n int64
		if f.live(key) && f.values[key] == token {
			n = f.del(key)
		}
		cmd.(*redis.Cmd).SetVal(n)
		return nil
	}

	err := fmt.Errorf("fakeRedis: 不支持的命令 %s", cmd.Name())
	cmd.SetErr(err)
	return err
}
