package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	c.Set("key", "value")

	val, found := c.Get("key")
	if !found {
		t.Fatal("элемент не найден")
	}
	if val.(string) != "value" {
		t.Errorf("Get = %v", val)
	}

	if _, found := c.Get("missing"); found {
		t.Error("найден несуществующий элемент")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	c.SetWithTTL("key", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, found := c.Get("key"); found {
		t.Error("просроченный элемент все еще доступен")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, found := c.Get("a"); found {
		t.Error("удаленный элемент доступен")
	}

	c.Clear()
	if _, found := c.Get("b"); found {
		t.Error("элемент доступен после Clear")
	}
}
