package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig 从多个源加载配置：.env 文件、config.yaml、以及 ./config/ 目录下的 JSON 文件。
// 配置加载顺序:
// 1. 内置默认值
// 2. .env 文件 (用于环境变量)
// 3. config.yaml (基础配置)
// 4. config/commands.json (命令权限配置，合并到主配置)
// 环境变量会覆盖配置文件中的同名设置。
func LoadConfig() {
	setDefaults()

	// 从 .env 文件加载环境变量，如果文件不存在则忽略。
	if err := godotenv.Load(); err != nil {
		log.Printf("未找到 .env 文件，将跳过加载。")
	}

	// 设置并读取基础配置文件 (config.yaml)。
	viper.SetConfigName("config")                          // 配置文件名 (无扩展名)
	viper.SetConfigType("yaml")                            // 配置文件类型
	viper.AddConfigPath(".")                               // 在当前工作目录中查找
	viper.AutomaticEnv()                                   // 自动读取匹配的环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将配置键中的'.'替换为'_'以匹配环境变量

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到是正常情况，可以继续。
			log.Printf("未找到基础配置文件 (config.yaml)，将仅使用环境变量和默认值。")
		} else {
			// 如果找到配置文件但解析出错，则终止程序。
			panic(fmt.Errorf("解析基础配置文件时发生致命错误: %w", err))
		}
	}

	// 合并命令权限配置文件 (config/commands.json)。
	// MergeInConfig 会将配置合并到现有的 viper 配置中。
	viper.SetConfigName("commands")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("未找到命令权限配置文件 (config/commands.json)，将跳过合并。")
		} else {
			panic(fmt.Errorf("合并命令权限配置文件时发生致命错误: %w", err))
		}
	}
}

// setDefaults 为所有可调参数注册默认值。
func setDefaults() {
	viper.SetDefault("bot.adminChannelId", "")
	viper.SetDefault("commands.auth.guest", []string{"0"})

	viper.SetDefault("catalog.baseUrl", "")
	viper.SetDefault("catalog.pageSize", 10)
	viper.SetDefault("catalog.timeoutMs", 2500)
	viper.SetDefault("catalog.regions", []string{"us"})
	viper.SetDefault("catalog.cache.capacity", 64)
	viper.SetDefault("catalog.cache.ttlMinutes", 10)
	viper.SetDefault("catalog.cache.extendOnHit", true)
	viper.SetDefault("catalog.warm.forwardWindow", 3)
	viper.SetDefault("catalog.warm.backwardWindow", 1)
	viper.SetDefault("catalog.warm.spacingMs", 400)
	viper.SetDefault("catalog.warm.fullDelaySeconds", 45)
	viper.SetDefault("catalog.warm.fullEverySeconds", 3)

	viper.SetDefault("nav.cooldownMs", 1500)
	viper.SetDefault("nav.userCooldownMs", 3000)
	viper.SetDefault("nav.stateTtlMinutes", 15)
	viper.SetDefault("nav.fetchTimeoutMs", 2500)

	viper.SetDefault("database.path", "data/dealboard.db")
	viper.SetDefault("database.statusFile", "data/status.json")

	viper.SetDefault("scheduler.enableBoardRefresh", true)
	viper.SetDefault("scheduler.boardRefreshSpec", "@every 30m")
	viper.SetDefault("scheduler.refreshAtStartup", true)
	viper.SetDefault("scheduler.enableBoardCleanup", true)
	viper.SetDefault("scheduler.boardCleanupSpec", "@daily")
	viper.SetDefault("scheduler.enableFullWarm", true)
}
