package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"Lee_Events/internal/model"
	"Lee_Events/internal/pkg"
	"Lee_Events/internal/repository/mysql"
	"Lee_Events/internal/repository/redis"
	"Lee_Events/internal/router"
	"Lee_Events/internal/service"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	dsn := envOr("MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/events?charset=utf8mb4&parseTime=True")
	if err := mysql.InitDB(dsn); err != nil {
		panic(err)
	}

	// 连接redis
	redisDB, _ := strconv.Atoi(envOr("REDIS_DB", "0"))
	if err := redis.Init(envOr("REDIS_ADDR", "127.0.0.1:6379"), os.Getenv("REDIS_PASSWORD"), redisDB); err != nil {
		panic(err)
	}
	defer redis.Close()

	// 自动建表（开发阶段 OK）
	mysql.DB.AutoMigrate(
		&model.User{},
		&model.Event{},
		&model.Category{},
		&model.Attendee{},
		&model.Question{},
		&model.QuestionVote{},
		&model.RegistrationOutbox{},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// outbox 投递：配了 KAFKA_BROKERS 就走 kafka，否则只打日志
	sender := service.Sender(service.LogSender)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   pkg.RegistrationTopic,
		})
		if err != nil {
			panic(err)
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}
	go service.NewOutboxRelayer(sender).Run(ctx)
	go service.NewAttendCountReconciler().Run(ctx)

	smtpPort, _ := strconv.Atoi(envOr("SMTP_PORT", "465"))
	emailCfg := pkg.SMTPConfig{
		Host:     envOr("SMTP_HOST", "smtp.example.com"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     envOr("SMTP_FROM", os.Getenv("SMTP_USERNAME")),
	}

	r := router.InitRouter(emailCfg)
	if err := r.Run(envOr("HTTP_ADDR", ":8080")); err != nil {
		log.Fatal(err)
	}
}
