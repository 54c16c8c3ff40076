package entry

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/study-tracker-backend/pkg/lifecycle"
)

// eventMinHeap 实现了 container/heap 接口
type eventMinHeap []EntryEvent

func (h eventMinHeap) Len() int            { return len(h) }
func (h eventMinHeap) Less(i, j int) bool  { return h[i].ID < h[j].ID }
func (h eventMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventMinHeap) Push(x interface{}) { *h = append(*h, x.(EntryEvent)) }
func (h *eventMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// entryProcessor 是一个单一写入者，按事件ID顺序把分数增量应用到Redis排行榜
type entryProcessor struct {
	eventChan            chan EntryEvent
	lastProcessedEventID uint
	buffer               *eventMinHeap
	processMutex         sync.Mutex
	isShutdown           bool
	shutdownMutex        sync.Mutex
}

var globalEntryProcessor = entryProcessor{
	eventChan: make(chan EntryEvent, 10000),
}

// initializeProcessor 初始化全局的entryProcessor实例
func initializeProcessor(startID uint) {
	globalEntryProcessor.lastProcessedEventID = startID
	h := &eventMinHeap{}
	heap.Init(h)
	globalEntryProcessor.buffer = h
}

// startProcessor 启动主处理循环和巡查员
func startProcessor(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	defer gracefulHandle.Close()
	defer forcefulHandle.Close()
	fmt.Println("保存事件处理器 (Entry Processor) 已启动。")

	// 立刻收集缺失的事件
	globalEntryProcessor.checkAndRequeueMissedEvents(gracefulHandle.Ctx())
	// 巡查员的生命周期与优雅关闭信号绑定
	patrollerCtx, patrollerCancel := context.WithCancel(gracefulHandle.Ctx())
	defer patrollerCancel()
	go globalEntryProcessor.runPatroller(patrollerCtx)

	globalEntryProcessor.runMainLoop(gracefulHandle, forcefulHandle)
}

// submitEventToQueue 供Handler调用，提交新的保存事件
func submitEventToQueue(event EntryEvent) {
	globalEntryProcessor.shutdownMutex.Lock()
	if globalEntryProcessor.isShutdown {
		globalEntryProcessor.shutdownMutex.Unlock()
		fmt.Printf("警告: 事件处理队列已关闭，放弃处理 event ID: %d\n", event.ID)
		return
	}
	select {
	case globalEntryProcessor.eventChan <- event:
		globalEntryProcessor.shutdownMutex.Unlock()
	default:
		globalEntryProcessor.shutdownMutex.Unlock()
		fmt.Printf("警告: 事件处理队列已满，暂时放弃实时处理 event ID: %d\n", event.ID)
	}
}

// runMainLoop 是处理器的主事件循环，响应两阶段停机
func (ep *entryProcessor) runMainLoop(gracefulHandle, forcefulHandle *lifecycle.Handle) {
	for {
		select {
		case <-gracefulHandle.Done():
			fmt.Println("Entry Processor: 收到优雅停机信号，正在处理剩余任务...")
			ep.drainQueue(forcefulHandle)
			fmt.Println("Entry Processor: 优雅停机完成，主循环退出。")
			return
		default:
			ep.processSingleEvent(gracefulHandle)
		}
	}
}

// drainQueue 在收到优雅停机信号后，尽力处理完暂存区和channel中的剩余任务
func (ep *entryProcessor) drainQueue(forcefulHandle *lifecycle.Handle) {
	ep.checkAndRequeueMissedEvents(forcefulHandle.Ctx())
	select {
	case <-forcefulHandle.Done():
		fmt.Println("Entry Processor: 收到强制停机信号，排空队列被中断。")
		return
	default:
	}

	// 关闭channel，不再接收新任务
	ep.shutdownMutex.Lock()
	ep.isShutdown = true
	close(ep.eventChan)
	ep.shutdownMutex.Unlock()

	// 将channel中所有剩余的任务都转移到暂存区
	for event := range ep.eventChan {
		ep.processMutex.Lock()
		heap.Push(ep.buffer, event)
		ep.processMutex.Unlock()
	}

	// 循环处理暂存区，直到它为空或收到强制关闭信号
	for {
		select {
		case <-forcefulHandle.Done():
			fmt.Println("Entry Processor: 收到强制停机信号，排空队列被中断。")
			return
		default:
		}

		ep.processMutex.Lock()
		if ep.buffer.Len() == 0 {
			ep.processMutex.Unlock()
			return
		}
		// 只处理连续的任务
		if (*ep.buffer)[0].ID == ep.lastProcessedEventID+1 {
			event := heap.Pop(ep.buffer).(EntryEvent)
			ep.processMutex.Unlock()
			// 排空模式下简化重试逻辑，失败则放弃
			if err := ep.applyEventToLeaderboards(event); err == nil {
				ep.processMutex.Lock()
				ep.lastProcessedEventID = event.ID
				ep.processMutex.Unlock()
			} else {
				fmt.Printf("排空队列时处理 event ID %d 失败，已放弃: %v\n", event.ID, err)
			}
		} else {
			ep.processMutex.Unlock()
			// 不连续说明有任务丢失，排空结束
			return
		}
	}
}

func (ep *entryProcessor) processSingleEvent(gracefulHandle *lifecycle.Handle) {
	nextEvent, err := ep.getNextContinuousEvent(gracefulHandle)
	if err != nil {
		return
	}

	// 检查Redis健康状态
	if !database.IsRedisHealthy() {
		fmt.Println("Entry Processor: 检测到Redis不可用或正在重建，暂停处理...")
		gracefulHandle.Sleep(5 * time.Second)
		ep.processMutex.Lock()
		heap.Push(ep.buffer, nextEvent)
		ep.processMutex.Unlock()
		return
	}

	select {
	case <-gracefulHandle.Done():
		return
	default:
	}

	err = ep.applyEventToLeaderboardsWithRetry(gracefulHandle, nextEvent)
	if err != nil {
		if err != context.Canceled && err != context.DeadlineExceeded {
			fmt.Printf("错误: 处理 event ID %d 失败，已放回队列: %v\n", nextEvent.ID, err)
		}
		ep.processMutex.Lock()
		heap.Push(ep.buffer, nextEvent)
		ep.processMutex.Unlock()
		return
	}

	// 只有在成功处理后才更新ID
	ep.processMutex.Lock()
	ep.lastProcessedEventID = nextEvent.ID
	ep.processMutex.Unlock()
}

// getNextContinuousEvent 阻塞等待下一个连续ID的事件，可被gracefulHandle中断
func (ep *entryProcessor) getNextContinuousEvent(gracefulHandle *lifecycle.Handle) (EntryEvent, error) {
	for {
		ep.processMutex.Lock()
		// 丢弃所有过时的堆顶元素
		for ep.buffer.Len() > 0 && (*ep.buffer)[0].ID <= ep.lastProcessedEventID {
			heap.Pop(ep.buffer)
		}

		if ep.buffer.Len() > 0 && (*ep.buffer)[0].ID == ep.lastProcessedEventID+1 {
			event := heap.Pop(ep.buffer).(EntryEvent)
			ep.processMutex.Unlock()
			return event, nil
		}
		ep.processMutex.Unlock()

		select {
		case <-gracefulHandle.Done():
			return EntryEvent{}, gracefulHandle.Err()
		case event := <-ep.eventChan:
			ep.processMutex.Lock()
			if event.ID <= ep.lastProcessedEventID {
				ep.processMutex.Unlock()
				continue // 过时的事件，直接丢弃
			}
			if event.ID == ep.lastProcessedEventID+1 {
				ep.processMutex.Unlock()
				return event, nil
			}
			// 事件太新，放入暂存区
			heap.Push(ep.buffer, event)
			ep.processMutex.Unlock()
		}
	}
}

// applyEventToLeaderboardsWithRetry 带指数退避和健康检查的重试逻辑
func (ep *entryProcessor) applyEventToLeaderboardsWithRetry(gracefulHandle *lifecycle.Handle, event EntryEvent) error {
	initialDelay := 8 * time.Millisecond
	maxDelay := 2 * time.Second

	delay := initialDelay
	for delay < maxDelay { // 短循环重试
		err := ep.applyEventToLeaderboards(event)
		if err == nil {
			return nil
		}
		if err = gracefulHandle.Sleep(delay); err != nil {
			return err
		}
		delay *= 2
	}

	// 进入长循环告警模式
	for {
		if !database.IsRedisHealthy() {
			return errors.New("redis became unhealthy during retry")
		}

		err := ep.applyEventToLeaderboards(event)
		if err == nil {
			return nil
		}

		fmt.Printf("告警: Redis持续写入失败，将在%v后重试 event ID %d\n", maxDelay, event.ID)
		if err := gracefulHandle.Sleep(maxDelay); err != nil {
			return err
		}
	}
}

// runPatroller 定期检查数据库中是否有被遗漏的保存事件
func (ep *entryProcessor) runPatroller(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ep.checkAndRequeueMissedEvents(ctx)
		}
	}
}

func (ep *entryProcessor) checkAndRequeueMissedEvents(ctx context.Context) {
	if !database.IsRedisHealthy() {
		return
	}

	ep.processMutex.Lock()
	startID := ep.lastProcessedEventID
	bufferMinID := uint(0)
	var bufferMinCreatedAt time.Time
	if ep.buffer.Len() > 0 {
		bufferMinID = (*ep.buffer)[0].ID
		bufferMinCreatedAt = (*ep.buffer)[0].CreatedAt
	}
	ep.processMutex.Unlock()

	select {
	case <-ctx.Done():
		return
	default:
	}

	var missedEvents []EntryEvent
	query := database.DB.Where("id > ?", startID)
	if bufferMinID > 0 {
		query = query.Where("id < ?", bufferMinID)
	}
	query.Order("id asc").Limit(1000).Find(&missedEvents)

	if len(missedEvents) == 0 {
		// 数据库里没有比检查点更新的事件，空洞只可能悬在暂存区的队首之前
		if bufferMinID > 0 {
			ep.skipSequenceGap(startID, bufferMinID, bufferMinCreatedAt)
		}
		return
	}

	ep.skipSequenceGap(startID, missedEvents[0].ID, missedEvents[0].CreatedAt)

	ep.processMutex.Lock()
	currentID := ep.lastProcessedEventID
	ep.processMutex.Unlock()
	if bufferMinID > 0 && currentID >= bufferMinID {
		return
	}

	fmt.Printf("巡查员: 发现 %d 条被遗漏的保存事件，正在提交处理...\n", len(missedEvents))
	for _, event := range missedEvents {
		select {
		case <-ctx.Done():
			return
		default:
			if event.ID > currentID {
				submitEventToQueue(event)
			}
		}
	}
}

// sequenceGapGrace 是认定一个ID空洞为永久空洞前的观察期，
// 避免把尚未提交的事务当成空洞跳过
const sequenceGapGrace = 30 * time.Second

// skipSequenceGap 把检查点推进到一个永久性ID空洞之后。
// postgres的序列在事务回滚后不会回收已分配的ID，对应的事件永远不会落库，
// 不跳过的话处理器会一直等待一个不存在的连续ID。
// 只有空洞后面第一个真实事件已经落库超过观察期，才认定空洞是永久的。
func (ep *entryProcessor) skipSequenceGap(startID, nextID uint, nextCreatedAt time.Time) {
	if nextID <= startID+1 || time.Since(nextCreatedAt) < sequenceGapGrace {
		return
	}

	ep.processMutex.Lock()
	defer ep.processMutex.Unlock()
	if ep.lastProcessedEventID != startID {
		return
	}
	ep.lastProcessedEventID = nextID - 1
	fmt.Printf("巡查员: 事件ID %d 至 %d 不存在，检查点已跳过该空洞。\n", startID+1, nextID-1)
}

// applyEventToLeaderboards 把单个事件的分数增量原子地应用到Redis的四个排行榜，
// 并推进Redis中的检查点
func (ep *entryProcessor) applyEventToLeaderboards(event EntryEvent) error {
	// 加锁避免与恢复流程的缓存重建冲突
	LockLeaderboard()
	defer UnlockLeaderboard()

	ep.processMutex.Lock()
	currentID := ep.lastProcessedEventID
	ep.processMutex.Unlock()
	if currentID > event.ID {
		return nil
	}

	pipe := database.RDB.TxPipeline()
	if event.TotalDelta != 0 {
		delta := float64(event.TotalDelta)
		member := event.UserID

		dayKey := LeaderboardDayKey(event.Date)
		weekKey := LeaderboardWeekKey(event.Date)
		monthKey := LeaderboardMonthKey(event.Date)

		pipe.ZIncrBy(database.Ctx, dayKey, delta, member)
		pipe.Expire(database.Ctx, dayKey, DayKeyTTL)
		pipe.ZIncrBy(database.Ctx, weekKey, delta, member)
		pipe.Expire(database.Ctx, weekKey, WeekKeyTTL)
		pipe.ZIncrBy(database.Ctx, monthKey, delta, member)
		pipe.Expire(database.Ctx, monthKey, MonthKeyTTL)
		pipe.ZIncrBy(database.Ctx, LeaderboardTotalKey, delta, member)
	}
	pipe.Set(database.Ctx, metadata.RedisLastProcessedEventIDKey, event.ID, 0)

	_, err := pipe.Exec(database.Ctx)
	if err != nil {
		return fmt.Errorf("更新排行榜失败: %w", err)
	}
	return nil
}
