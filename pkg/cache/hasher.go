package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Coordinate is the minimal lat/lng pair hashed into a matrix cache key.
// It mirrors the depot/job location shape read back from PostGIS.
type Coordinate struct {
	Lat float64
	Lng float64
}

// MatrixHash вычисляет детерминированный хеш упорядоченного списка координат
// и профиля маршрутизации для использования как ключ кэша матрицы.
// Порядок координат значим: перестановка точек даёт другую матрицу.
func MatrixHash(coords []Coordinate, profile string) string {
	data := matrixToCanonical(coords, profile)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func matrixToCanonical(coords []Coordinate, profile string) []byte {
	var result []byte
	result = append(result, []byte(fmt.Sprintf("p:%s;n:%d;", profile, len(coords)))...)
	for i, c := range coords {
		result = append(result, []byte(fmt.Sprintf("%d:%.6f,%.6f;", i, c.Lat, c.Lng))...)
	}
	return result
}

// BuildMatrixKey строит ключ кэша для матрицы расстояний/времени.
func BuildMatrixKey(matrixHash string) string {
	return fmt.Sprintf("matrix:%s", matrixHash)
}

// BuildPolylineKey строит ключ кэша для полилинии маршрута между двумя точками.
func BuildPolylineKey(from, to Coordinate, profile string) string {
	h := MatrixHash([]Coordinate{from, to}, profile)
	return fmt.Sprintf("polyline:%s", h)
}

// QuickHash быстрый хеш для произвольных данных.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов).
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
