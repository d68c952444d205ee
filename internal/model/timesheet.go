package model

import "encoding/json"

// TimesheetGroup 一次提交的工时分组，最多覆盖两周
type TimesheetGroup struct {
	Week1 []TimesheetRecord `json:"week1,omitempty"`
	Week2 []TimesheetRecord `json:"week2,omitempty"`
}

// Weeks 按 week1、week2 顺序返回两周的记录
func (g TimesheetGroup) Weeks() [2][]TimesheetRecord {
	return [2][]TimesheetRecord{g.Week1, g.Week2}
}

// TimesheetRecord 单条工时记录（存储原样）
//
// HoursWorked 保留原始 JSON：历史数据中既有数字也有字符串，
// 解析放在核对引擎中逐条进行，单条损坏不影响整份文档的读取。
type TimesheetRecord struct {
	Date        string          `json:"date"`
	Day         string          `json:"day"`
	CourseCode  string          `json:"courseCode"`
	HoursWorked json.RawMessage `json:"hoursWorked"`
	Comments    string          `json:"comments,omitempty"`
}
