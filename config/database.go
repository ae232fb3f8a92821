package config

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBConnections содержит подключения к базам данных
type DBConnections struct {
	// OLTPDB - исходная транзакционная база (PostgreSQL)
	OLTPDB *sql.DB

	// WarehouseDB - целевое аналитическое хранилище (MySQL)
	WarehouseDB *sql.DB
}

// ConnectDatabases устанавливает подключения к OLTP базе и хранилищу
func ConnectDatabases(config ETLConfig) (*DBConnections, error) {
	var connections DBConnections
	var err error

	// Подключение к OLTP базе данных (исходная, PostgreSQL)
	oltpDSN := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		config.OLTPConfig.User,
		config.OLTPConfig.Password,
		config.OLTPConfig.Host,
		config.OLTPConfig.Port,
		config.OLTPConfig.DBName,
	)

	connections.OLTPDB, err = sql.Open(config.OLTPConfig.Driver, oltpDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к OLTP базе данных: %w", err)
	}

	// Настройка параметров подключения к OLTP
	connections.OLTPDB.SetMaxOpenConns(10)
	connections.OLTPDB.SetMaxIdleConns(5)
	connections.OLTPDB.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения к OLTP
	if err := connections.OLTPDB.Ping(); err != nil {
		connections.OLTPDB.Close()
		return nil, fmt.Errorf("не удалось установить соединение с OLTP базой данных: %w", err)
	}

	// Подключение к хранилищу (целевое, MySQL)
	dwhDSN := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		config.WarehouseConfig.User,
		config.WarehouseConfig.Password,
		config.WarehouseConfig.Host,
		config.WarehouseConfig.Port,
		config.WarehouseConfig.DBName,
	)

	connections.WarehouseDB, err = sql.Open(config.WarehouseConfig.Driver, dwhDSN)
	if err != nil {
		// Закрываем первое подключение при ошибке
		connections.OLTPDB.Close()
		return nil, fmt.Errorf("ошибка подключения к хранилищу: %w", err)
	}

	// Настройка параметров подключения к хранилищу
	connections.WarehouseDB.SetMaxOpenConns(10)
	connections.WarehouseDB.SetMaxIdleConns(5)
	connections.WarehouseDB.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения к хранилищу
	if err := connections.WarehouseDB.Ping(); err != nil {
		// Закрываем оба подключения при ошибке
		connections.OLTPDB.Close()
		connections.WarehouseDB.Close()
		return nil, fmt.Errorf("не удалось установить соединение с хранилищем: %w", err)
	}

	log.Println("Успешное подключение к OLTP базе данных и хранилищу")
	return &connections, nil
}

// CloseDatabases закрывает подключения к базам данных
func CloseDatabases(connections *DBConnections) {
	if connections.OLTPDB != nil {
		if err := connections.OLTPDB.Close(); err != nil {
			log.Printf("Ошибка при закрытии соединения с OLTP базой данных: %v", err)
		}
	}

	if connections.WarehouseDB != nil {
		if err := connections.WarehouseDB.Close(); err != nil {
			log.Printf("Ошибка при закрытии соединения с хранилищем: %v", err)
		}
	}

	log.Println("Соединения с базами данных закрыты")
}
