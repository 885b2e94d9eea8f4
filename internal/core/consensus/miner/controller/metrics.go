package controller

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// minerRunning 挖矿是否运行（Gauge，0/1）
	minerRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "powminer_miner_running",
			Help: "挖矿循环是否运行（1=运行）",
		},
	)

	// minerHashRate 最近一次上报的算力（H/s）
	minerHashRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "powminer_miner_hash_rate",
			Help: "当前作业的算力（H/s）",
		},
	)

	// minerJobHashes 当前作业累计哈希次数
	minerJobHashes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "powminer_miner_job_hashes",
			Help: "当前作业累计哈希次数",
		},
	)

	// minerIterations 当前作业已消耗的 extranonce 代数
	minerIterations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "powminer_miner_job_iterations",
			Help: "当前作业已消耗的 extranonce 代数",
		},
	)

	// minerBlocksFound 成功上链的区块数（Counter）
	minerBlocksFound = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "powminer_miner_blocks_found_total",
			Help: "挖出并成功上链的区块总数",
		},
	)

	// minerBlocksRejected 校验失败的区块数（Counter）
	minerBlocksRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "powminer_miner_blocks_rejected_total",
			Help: "挖出但未通过链校验的区块总数",
		},
	)

	// minerJobsCancelled 被取消的作业数
	minerJobsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powminer_miner_jobs_cancelled_total",
			Help: "被取消的挖矿作业总数",
		},
		[]string{"reason"}, // reason: tip, mempool, stop
	)
)

func init() {
	prometheus.MustRegister(minerRunning)
	prometheus.MustRegister(minerHashRate)
	prometheus.MustRegister(minerJobHashes)
	prometheus.MustRegister(minerIterations)
	prometheus.MustRegister(minerBlocksFound)
	prometheus.MustRegister(minerBlocksRejected)
	prometheus.MustRegister(minerJobsCancelled)
}
