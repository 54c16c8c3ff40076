package subject

import (
	"fmt"
	"sync"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
)

// repository 是subject模块的中央数据仓库。
// 科目集合在编译期固定，权重表在启动时从数据库加载，之后只读。
type repository struct {
	keyToIndex map[string]int
	weights    map[string]float64
	rwLock     sync.RWMutex
}

// globalRepository 是我们仓库的私有单例实例
var globalRepository *repository

// InitializeRepository 从数据库加载科目权重，初始化内存仓库。
// 这个函数应该在应用启动时且仅调用一次。
func InitializeRepository() error {
	var weightsFromDB []SubjectWeight
	if err := database.DB.Order("id asc").Find(&weightsFromDB).Error; err != nil {
		return fmt.Errorf("无法从数据库加载科目权重: %w", err)
	}

	globalRepository = &repository{
		keyToIndex: make(map[string]int, len(Definitions)),
		weights:    make(map[string]float64, len(Definitions)),
	}

	for i, def := range Definitions {
		globalRepository.keyToIndex[def.Key] = i
		// 没有显式权重记录的科目默认权重为1
		globalRepository.weights[def.Key] = 1.0
	}
	for _, w := range weightsFromDB {
		if _, ok := globalRepository.keyToIndex[w.Subject]; ok {
			globalRepository.weights[w.Subject] = w.Weight
		}
	}

	fmt.Printf("科目仓库 (Repository) 初始化成功，加载了 %d 个科目。\n", len(Definitions))
	return nil
}

// --- Public Methods for Data Access ---
// 这些方法是线程安全的。

// Count 返回固定科目集合的大小。
func Count() int {
	return len(Definitions)
}

// IsValidKey 检查一个键名是否属于固定的科目集合。
func IsValidKey(key string) bool {
	if globalRepository == nil {
		for _, def := range Definitions {
			if def.Key == key {
				return true
			}
		}
		return false
	}
	_, ok := globalRepository.keyToIndex[key]
	return ok
}

// GetWeight 返回一个科目的权重，未知科目返回0。
func GetWeight(key string) float64 {
	if globalRepository == nil {
		return 0
	}
	globalRepository.rwLock.RLock()
	defer globalRepository.rwLock.RUnlock()
	return globalRepository.weights[key]
}

// GetWeights 返回全部科目权重的副本，供计分引擎一次性使用。
func GetWeights() map[string]float64 {
	if globalRepository == nil {
		return nil
	}
	globalRepository.rwLock.RLock()
	defer globalRepository.rwLock.RUnlock()
	out := make(map[string]float64, len(globalRepository.weights))
	for k, v := range globalRepository.weights {
		out[k] = v
	}
	return out
}
