package tokenizer

import "fmt"

// Registry 持有启动时构建好的后端, 构建后只读.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry 用给定后端创建注册表.
// 键必须属于封闭集合, 且必须包含回退目标 DefaultKey.
func NewRegistry(backends map[string]Backend) (*Registry, error) {
	r := &Registry{backends: make(map[string]Backend, len(backends))}
	for key, b := range backends {
		if !IsKnownKey(key) {
			return nil, fmt.Errorf("unknown tokenizer key %q", key)
		}
		if b == nil {
			return nil, fmt.Errorf("tokenizer %q has no backend", key)
		}
		r.backends[key] = b
	}
	if _, ok := r.backends[DefaultKey]; !ok {
		return nil, fmt.Errorf("default tokenizer %q is not registered", DefaultKey)
	}
	return r, nil
}

// Lookup 精确匹配 key.
func (r *Registry) Lookup(key string) (Backend, bool) {
	b, ok := r.backends[key]
	return b, ok
}

// Resolve 解析 key; 未注册的 key 静默回退到 DefaultKey.
// 返回实际使用的键以及是否发生了回退.
func (r *Registry) Resolve(key string) (Backend, string, bool) {
	if b, ok := r.backends[key]; ok {
		return b, key, false
	}
	return r.backends[DefaultKey], DefaultKey, true
}

// Keys 按界面顺序返回已注册的键.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.backends))
	for _, k := range Keys() {
		if _, ok := r.backends[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Info 描述一个已注册的后端.
type Info struct {
	Key       string
	Name      string
	VocabSize int
	Offsets   bool
	Default   bool
}

// Describe 返回每个后端的描述, 顺序同 Keys.
func (r *Registry) Describe() []Info {
	keys := r.Keys()
	out := make([]Info, 0, len(keys))
	for _, k := range keys {
		b := r.backends[k]
		info := Info{Key: k, Name: b.Name(), Default: k == DefaultKey}
		if vs, ok := b.(VocabSizer); ok {
			info.VocabSize = vs.VocabSize()
		}
		_, decodes := b.(TokenDecoder)
		info.Offsets = !decodes
		out = append(out, info)
	}
	return out
}
