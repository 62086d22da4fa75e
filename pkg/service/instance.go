package service

import "net/http"

// InstanceProvider resolves the service instance an operation is invoked on.
type InstanceProvider interface {
	Instance(r *http.Request) (any, error)
}

// InstanceProviderFunc adapts a function to InstanceProvider.
type InstanceProviderFunc func(r *http.Request) (any, error)

// Instance calls f.
func (f InstanceProviderFunc) Instance(r *http.Request) (any, error) {
	return f(r)
}

// Singleton returns a provider that hands out v for every request. v must be
// safe for concurrent use.
func Singleton(v any) InstanceProvider {
	return InstanceProviderFunc(func(*http.Request) (any, error) {
		return v, nil
	})
}

// PerRequest returns a provider that creates a fresh instance per request.
func PerRequest(create func(r *http.Request) (any, error)) InstanceProvider {
	return InstanceProviderFunc(func(r *http.Request) (any, error) {
		v, err := create(r)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrNoInstance
		}
		return v, nil
	})
}
