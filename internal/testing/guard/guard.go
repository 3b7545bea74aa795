package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ANTARES_TEST_MODE") == "" {
			_ = os.Setenv("ANTARES_TEST_MODE", "1")
		}
	})
}
