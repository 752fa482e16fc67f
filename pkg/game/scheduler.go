package game

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/logger"
)

// TaskFunc 延时任务回调
// dueAt 为任务的计划触发时刻（虚拟时间），与帧率无关
type TaskFunc func(dueAt float64)

type scheduledTask struct {
	name       string
	dueAt      float64
	seq        uint64
	generation uint64
	fn         TaskFunc
}

// Scheduler 一次性延时任务调度器
//
// 时间是虚拟的，只由 Update(dt) 推进，不会阻塞。
// 每个任务记录调度时的回合代数；回合重置（NextGeneration）后
// 旧回合遗留的任务在触发时被跳过。
// 同一时刻到期的任务按调度顺序执行。
type Scheduler struct {
	now        float64
	seq        uint64
	generation uint64
	tasks      []scheduledTask // 按 (dueAt, seq) 升序
	log        zerolog.Logger
}

// NewScheduler 创建调度器，代数从 1 开始
func NewScheduler() *Scheduler {
	return &Scheduler{generation: 1, log: logger.For("Scheduler")}
}

// Now 当前虚拟时间（秒）
func (s *Scheduler) Now() float64 {
	return s.now
}

// Generation 当前回合代数
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// NextGeneration 进入新回合，之前调度的任务全部作废
func (s *Scheduler) NextGeneration() uint64 {
	s.generation++
	return s.generation
}

// Pending 尚未触发的任务数（包括已作废但未到期的）
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// After 在 delay 秒后执行 fn，绑定当前代数
// 负延时按 0 处理
func (s *Scheduler) After(delay float64, name string, fn TaskFunc) {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	task := scheduledTask{
		name:       name,
		dueAt:      s.now + delay,
		seq:        s.seq,
		generation: s.generation,
		fn:         fn,
	}

	i := sort.Search(len(s.tasks), func(i int) bool {
		t := s.tasks[i]
		return t.dueAt > task.dueAt || (t.dueAt == task.dueAt && t.seq > task.seq)
	})
	s.tasks = append(s.tasks, scheduledTask{})
	copy(s.tasks[i+1:], s.tasks[i:])
	s.tasks[i] = task
}

// Update 推进虚拟时间并执行所有到期任务
// 回调中新调度且已到期的任务在同一次 Update 内执行
func (s *Scheduler) Update(dt float64) {
	if dt > 0 {
		s.now += dt
	}

	for len(s.tasks) > 0 && s.tasks[0].dueAt <= s.now {
		task := s.tasks[0]
		s.tasks = s.tasks[1:]

		if task.generation != s.generation {
			s.log.Debug().
				Str("task", task.name).
				Uint64("taskGeneration", task.generation).
				Uint64("generation", s.generation).
				Msg("skipping stale task")
			continue
		}
		task.fn(task.dueAt)
	}
}
