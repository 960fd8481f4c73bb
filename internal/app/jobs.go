package app

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"go.uber.org/zap"

	"github.com/agunghasbi/be-ekuator/internal/domain"
	"github.com/agunghasbi/be-ekuator/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", a.SchedPurgeExpiredTokens)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", a.SchedClearExpireData)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@hourly", a.SchedCheckoutReport)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedPurgeExpiredTokens removes access tokens past their expiry
func (a *Application) SchedPurgeExpiredTokens() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := a.authSvc.PurgeExpiredTokens(ctx)
	if err != nil {
		zap.L().Error("purge expired tokens", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("purged expired tokens", zap.Int64("count", n))
	}
}

// SchedClearExpireData removes operation logs older than a year
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	err := a.gormDB.
		Where("opt_time < ?", time.Now().Add(-time.Hour*24*365)).
		Delete(&domain.OprLog{}).Error
	if err != nil {
		zap.L().Error("clear operation logs", zap.Error(err))
	}
}

// SchedCheckoutReport logs the checkout summary of the last hour
func (a *Application) SchedCheckoutReport() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	sum, err := a.metrics.Summary(1)
	if err != nil {
		zap.L().Error("checkout summary", zap.Error(err))
		return
	}
	zap.L().Info("checkout report",
		zap.Int64("successes", sum.Successes),
		zap.Int64("conflicts", sum.Conflicts),
		zap.Int64("failures", sum.Failures),
		zap.Int64("revenue", sum.Revenue))
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		a.setGauge(metrics.GaugeSystemMem, int64(_meminfo.Used/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}

	cpuuse, err := p.CPUPercent()
	if err == nil {
		a.setGauge(metrics.GaugeProcessCPU, int64(cpuuse*100)) // percentage * 100
	}

	meminfo, err := p.MemoryInfo()
	if err == nil {
		a.setGauge(metrics.GaugeProcessMem, int64(meminfo.RSS/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

func (a *Application) setGauge(name string, value int64) {
	if a.metrics == nil {
		return
	}
	if err := a.metrics.SetGauge(name, value); err != nil {
		zap.S().Warnf("set gauge %s: %s", name, err)
	}
}
