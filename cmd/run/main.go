package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thep200/github-recommender/api"
	"github.com/thep200/github-recommender/pkg/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := log.NewCslLogger()

	// Hủy run khi nhận tín hiệu dừng; các fetch đang bay được phép drain
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn(ctx, "Nhận tín hiệu dừng, hủy run...")
		cancel()
	}()

	recommenderApi := api.NewRecommenderAPI()
	if err := recommenderApi.Initialize(ctx); err != nil {
		logger.Error(ctx, "Không khởi tạo được recommender: %v", err)
		os.Exit(1)
	}
	defer recommenderApi.Close()

	config := recommenderApi.Config()
	logger.Info(ctx, "Starting recommender: seed=%s, backend=%s", config.Recommender.Seed, config.Recommender.Backend)

	result, err := recommenderApi.Run(ctx)
	if err != nil {
		logger.Error(ctx, "Failed! %v", err)
		os.Exit(1)
	}

	stats, _ := recommenderApi.GetRunStats()
	logger.Info(ctx, "==== KẾT QUẢ RUN ====")
	logger.Info(ctx, "Seed: %s", result.Seed)
	logger.Info(ctx, "Tổng số subject đã xử lý: %d", stats.SubjectsProcessed)
	logger.Info(ctx, "Tổng số neighbor được sample: %d", stats.NeighborsSampled)
	logger.Info(ctx, "Tổng số neighbor có dữ liệu: %d", stats.NeighborsWithData)
	logger.Info(ctx, "Tổng số khuyến nghị: %d", stats.Recommendations)
	logger.Info(ctx, "Thời gian thực hiện: %s", stats.Duration)
	logger.Info(ctx, "Successfully!")
}
